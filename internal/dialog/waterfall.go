package dialog

import (
	"encoding/json"
	"fmt"
)

// Step is one function in a waterfall's ordered sequence. A step reads
// the previous step's product via sc.Result(), does its work, and exits
// through exactly one of the StepContext outcomes: Prompt, Next, Begin,
// Replace or End.
type Step func(sc *StepContext) (Result, error)

// Waterfall runs an ordered, fixed-length list of steps bound to one
// flow instance. A prompting step suspends the turn; the next inbound
// message resumes at the step after the one that prompted.
type Waterfall struct {
	id    string
	steps []Step
}

// NewWaterfall builds a waterfall dialog from an ordered step list
func NewWaterfall(id string, steps ...Step) *Waterfall {
	return &Waterfall{id: id, steps: steps}
}

func (w *Waterfall) ID() string { return w.id }

// Begin runs step 0. The step reads the flow's options via sc.Options().
func (w *Waterfall) Begin(dc *Context, options any) (Result, error) {
	frame := dc.ActiveFrame()
	frame.StepIndex = 0
	return w.runStep(dc, frame, nil)
}

// Continue re-runs the current step with the inbound message available.
// Reached only if the waterfall itself is top of stack while waiting,
// which a prompting step never leaves it; steps are idempotent for
// already-filled slots so a re-run is safe.
func (w *Waterfall) Continue(dc *Context) (Result, error) {
	return w.runStep(dc, dc.ActiveFrame(), nil)
}

// Resume advances past the step that started a child dialog, handing
// the child's result to the next step.
func (w *Waterfall) Resume(dc *Context, value any) (Result, error) {
	frame := dc.ActiveFrame()
	frame.StepIndex++
	return w.runStep(dc, frame, value)
}

func (w *Waterfall) runStep(dc *Context, frame *Frame, result any) (Result, error) {
	if frame.StepIndex >= len(w.steps) {
		return dc.End(result)
	}
	sc := &StepContext{dc: dc, waterfall: w, frame: frame, result: result}
	return w.steps[frame.StepIndex](sc)
}

// StepContext is the handle a step uses to read prior results, write
// working values, prompt the user, or end/continue/replace the flow.
type StepContext struct {
	dc        *Context
	waterfall *Waterfall
	frame     *Frame
	result    any
}

// Context returns the per-turn handle for sending messages
func (sc *StepContext) Context() *TurnContext { return sc.dc.Turn }

// Options returns the immutable bundle the flow was started with
func (sc *StepContext) Options() any { return sc.frame.Options }

// Result returns the value produced by the previous step or the child
// dialog that just completed
func (sc *StepContext) Result() any { return sc.result }

// Value reads a slot accumulated by an earlier step of this invocation
func (sc *StepContext) Value(key string) any { return sc.frame.Values[key] }

// SetValue writes a slot scoped to this invocation
func (sc *StepContext) SetValue(key string, v any) { sc.frame.Values[key] = v }

// HasValue reports whether a slot has been filled (nil counts as unfilled)
func (sc *StepContext) HasValue(key string) bool {
	v, ok := sc.frame.Values[key]
	return ok && v != nil
}

// IntValue reads an integer slot. A stack restored from its persisted
// JSON holds numbers as float64, so both shapes are accepted.
func (sc *StepContext) IntValue(key string) int {
	switch n := sc.frame.Values[key].(type) {
	case int:
		return n
	case float64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	}
	return 0
}

// StringValue reads a string slot, empty when unset
func (sc *StepContext) StringValue(key string) string {
	s, _ := sc.frame.Values[key].(string)
	return s
}

// BoolValue reads a boolean slot, false when unset
func (sc *StepContext) BoolValue(key string) bool {
	b, _ := sc.frame.Values[key].(bool)
	return b
}

// DecodeValue decodes a structured slot into out. Within a process the
// slot holds the value as it was set; after a restored stack it holds
// the generic JSON form. The round trip covers both, so steps must read
// structured slots through here rather than by type assertion.
func (sc *StepContext) DecodeValue(key string, out any) bool {
	v, ok := sc.frame.Values[key]
	if !ok || v == nil {
		return false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// Prompt suspends the flow on the named prompt dialog. The prompt text
// must already be in the conversation language.
func (sc *StepContext) Prompt(promptID, text string) (Result, error) {
	return sc.dc.Begin(promptID, PromptOptions{Text: text})
}

// PromptChoice suspends the flow on a closed-list choice prompt
func (sc *StepContext) PromptChoice(promptID, text string, choices []string) (Result, error) {
	return sc.dc.Begin(promptID, PromptOptions{Text: text, Choices: choices})
}

// Next advances to the following step in the same turn, passing value
// as its result. Used to skip a prompt when the slot is already filled.
func (sc *StepContext) Next(value any) (Result, error) {
	sc.frame.StepIndex++
	return sc.waterfall.runStep(sc.dc, sc.frame, value)
}

// Begin starts a nested dialog; this flow resumes at the next step when
// the child completes, receiving the child's result
func (sc *StepContext) Begin(dialogID string, options any) (Result, error) {
	return sc.dc.Begin(dialogID, options)
}

// Replace restarts this flow as a fresh instance with new options
func (sc *StepContext) Replace(options any) (Result, error) {
	return sc.dc.Replace(sc.waterfall.id, options)
}

// End terminates the flow, yielding value to its caller
func (sc *StepContext) End(value any) (Result, error) {
	return sc.dc.End(value)
}

// EndWithError terminates the flow and propagates err after yielding
// nothing to the caller. Rarely needed; collaborator failures are
// normally reported to the user and ended gracefully instead.
func (sc *StepContext) EndWithError(err error) (Result, error) {
	res, endErr := sc.dc.End(nil)
	if endErr != nil {
		return res, fmt.Errorf("%v (while ending after: %w)", endErr, err)
	}
	return res, err
}
