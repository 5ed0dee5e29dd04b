package dialog

import (
	"fmt"
	"strconv"
	"strings"
)

// PromptOptions carries the issued prompt text (already translated) and,
// for choice prompts, the closed option list. Kept on the prompt's frame
// so a failed validation can reissue the prompt verbatim.
type PromptOptions struct {
	Text    string   `json:"text"`
	Choices []string `json:"choices,omitempty"`
}

// Validator checks one piece of user input. On success it returns the
// typed value the waterfall's next step will receive. On failure the
// same prompt is reissued; the validator may have already sent its own
// failure message.
type Validator func(tc *TurnContext, opts PromptOptions, input string) (any, bool)

// Prompt is a leaf dialog that validates a single input and only
// completes once validation succeeds, re-prompting otherwise.
type Prompt struct {
	id       string
	validate Validator
}

// NewPrompt builds a prompt around a validator
func NewPrompt(id string, validate Validator) *Prompt {
	return &Prompt{id: id, validate: validate}
}

func (p *Prompt) ID() string { return p.id }

// Begin issues the prompt and suspends the turn
func (p *Prompt) Begin(dc *Context, options any) (Result, error) {
	frame := dc.ActiveFrame()
	if frame.Prompt == nil {
		return Result{}, fmt.Errorf("prompt %q: options must be PromptOptions, got %T", p.id, options)
	}
	p.send(dc.Turn, *frame.Prompt)
	return Result{Status: StatusWaiting}, nil
}

// Continue validates the inbound message. Success ends the prompt with
// the validated value; failure reissues the prompt verbatim and waits.
// The options come off the frame's typed prompt field, so a prompt
// suspended across a process restart keeps its text and choices.
func (p *Prompt) Continue(dc *Context) (Result, error) {
	frame := dc.ActiveFrame()
	var opts PromptOptions
	if frame.Prompt != nil {
		opts = *frame.Prompt
	}
	if value, ok := p.validate(dc.Turn, opts, dc.Turn.Message); ok {
		return dc.End(value)
	}
	p.send(dc.Turn, opts)
	return Result{Status: StatusWaiting}, nil
}

// Resume is unreachable for prompts; they never nest dialogs
func (p *Prompt) Resume(dc *Context, _ any) (Result, error) {
	return Result{Status: StatusWaiting}, nil
}

func (p *Prompt) send(tc *TurnContext, opts PromptOptions) {
	if len(opts.Choices) == 0 {
		tc.Send(opts.Text)
		return
	}
	lines := []string{opts.Text}
	for i, c := range opts.Choices {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, c))
	}
	tc.Send(strings.Join(lines, "\n"))
}

// NewTextPrompt accepts any non-empty input
func NewTextPrompt(id string) *Prompt {
	return NewPrompt(id, func(_ *TurnContext, _ PromptOptions, input string) (any, bool) {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			return nil, false
		}
		return trimmed, true
	})
}

// NumberPromptMax bounds passenger counts; a search request cannot seat
// more than one full aircraft.
const NumberPromptMax = 150

// NewNumberPrompt accepts an integer n with 0 < n <= NumberPromptMax
func NewNumberPrompt(id string) *Prompt {
	return NewPrompt(id, func(_ *TurnContext, _ PromptOptions, input string) (any, bool) {
		n, err := strconv.Atoi(strings.TrimSpace(input))
		if err != nil || n <= 0 || n > NumberPromptMax {
			return nil, false
		}
		return n, true
	})
}

var (
	yesWords = []string{"yes", "y", "yeah", "yep", "sure", "ok", "okay", "true"}
	noWords  = []string{"no", "n", "nope", "nah", "false"}
)

// NewConfirmPrompt maps a small fixed vocabulary to true/false
func NewConfirmPrompt(id string) *Prompt {
	return NewPrompt(id, func(_ *TurnContext, _ PromptOptions, input string) (any, bool) {
		word := strings.ToLower(strings.TrimSpace(input))
		for _, w := range yesWords {
			if word == w {
				return true, true
			}
		}
		for _, w := range noWords {
			if word == w {
				return false, true
			}
		}
		return nil, false
	})
}

// NewChoicePrompt accepts a selection from the closed option list on the
// prompt's options, by label (case-insensitive) or 1-based number
func NewChoicePrompt(id string) *Prompt {
	return NewPrompt(id, func(_ *TurnContext, opts PromptOptions, input string) (any, bool) {
		trimmed := strings.TrimSpace(input)
		if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(opts.Choices) {
			return opts.Choices[n-1], true
		}
		for _, c := range opts.Choices {
			if strings.EqualFold(c, trimmed) {
				return c, true
			}
		}
		return nil, false
	})
}
