package dialog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingResponder struct {
	texts []string
	cards []Card
}

func (r *recordingResponder) SendText(text string) error {
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingResponder) SendCard(card Card) error {
	r.cards = append(r.cards, card)
	return nil
}

type passthroughTranslator struct{}

func (passthroughTranslator) Translate(_ context.Context, text, _, _ string) string { return text }

func newTurn(message string, r *recordingResponder) *TurnContext {
	return &TurnContext{
		Ctx:            context.Background(),
		ConversationID: "conv-1",
		Message:        message,
		Language:       "en",
		Responder:      r,
		Translator:     passthroughTranslator{},
		Remember:       func(string, any) {},
		Recall:         func(string) any { return nil },
	}
}

// drive begins a prompt and feeds it inputs in order, returning the
// final result
func drivePrompt(t *testing.T, p *Prompt, options PromptOptions, inputs []string) (Result, *recordingResponder) {
	t.Helper()
	set := NewSet().Add(p)
	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	result, err := dc.Begin(p.ID(), options)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)

	for _, input := range inputs {
		dc = set.CreateContext(newTurn(input, responder), stack)
		result, err = dc.Continue()
		require.NoError(t, err)
	}
	return result, responder
}

func TestNumberPrompt_AcceptsBounds(t *testing.T) {
	for _, input := range []string{"1", "150", " 42 "} {
		t.Run(input, func(t *testing.T) {
			result, _ := drivePrompt(t, NewNumberPrompt("num"), PromptOptions{Text: "How many?"}, []string{input})
			require.Equal(t, StatusComplete, result.Status)
		})
	}
}

func TestNumberPrompt_RepromptsOnInvalid(t *testing.T) {
	for _, input := range []string{"0", "151", "-3", "two"} {
		t.Run(input, func(t *testing.T) {
			result, responder := drivePrompt(t, NewNumberPrompt("num"), PromptOptions{Text: "How many?"}, []string{input})
			require.Equal(t, StatusWaiting, result.Status)
			// initial prompt plus the verbatim reissue
			require.Equal(t, []string{"How many?", "How many?"}, responder.texts)
		})
	}
}

func TestNumberPrompt_RecoversAfterFailure(t *testing.T) {
	result, _ := drivePrompt(t, NewNumberPrompt("num"), PromptOptions{Text: "How many?"}, []string{"zero", "3"})
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, 3, result.Value)
}

func TestTextPrompt_RejectsBlank(t *testing.T) {
	result, _ := drivePrompt(t, NewTextPrompt("txt"), PromptOptions{Text: "Name?"}, []string{"   ", "Asha"})
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "Asha", result.Value)
}

func TestConfirmPrompt_Vocabulary(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes", true}, {"Y", true}, {"Sure", true}, {"okay", true},
		{"no", false}, {"Nope", false}, {"n", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, _ := drivePrompt(t, NewConfirmPrompt("ok"), PromptOptions{Text: "Confirm?"}, []string{tt.input})
			require.Equal(t, StatusComplete, result.Status)
			require.Equal(t, tt.want, result.Value)
		})
	}
}

func TestConfirmPrompt_RepromptsOutsideVocabulary(t *testing.T) {
	result, _ := drivePrompt(t, NewConfirmPrompt("ok"), PromptOptions{Text: "Confirm?"}, []string{"maybe"})
	require.Equal(t, StatusWaiting, result.Status)
}

func TestChoicePrompt_ByNumberAndLabel(t *testing.T) {
	options := PromptOptions{Text: "Cabin?", Choices: []string{"ECONOMY", "BUSINESS", "FIRST"}}

	result, responder := drivePrompt(t, NewChoicePrompt("choice"), options, []string{"2"})
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "BUSINESS", result.Value)
	// choices are rendered as a numbered list
	require.Equal(t, "Cabin?\n1. ECONOMY\n2. BUSINESS\n3. FIRST", responder.texts[0])

	result, _ = drivePrompt(t, NewChoicePrompt("choice"), options, []string{"first"})
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "FIRST", result.Value)
}

func TestChoicePrompt_RejectsOutOfRange(t *testing.T) {
	options := PromptOptions{Text: "Cabin?", Choices: []string{"ECONOMY", "BUSINESS"}}
	result, _ := drivePrompt(t, NewChoicePrompt("choice"), options, []string{"3"})
	require.Equal(t, StatusWaiting, result.Status)
}

func TestChoicePrompt_SurvivesSerializedStack(t *testing.T) {
	p := NewChoicePrompt("gender")
	set := NewSet().Add(p)
	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	_, err := dc.Begin(p.ID(), PromptOptions{Text: "Gender:", Choices: []string{"MALE", "FEMALE", "OTHER"}})
	require.NoError(t, err)

	// round-trip the stack through JSON the way the session store does
	raw, err := json.Marshal(stack.Frames)
	require.NoError(t, err)
	restored := &Stack{}
	require.NoError(t, json.Unmarshal(raw, &restored.Frames))

	// invalid input reissues the full rendered prompt
	responder = &recordingResponder{}
	dc = set.CreateContext(newTurn("maybe", responder), restored)
	result, err := dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)
	require.Equal(t, []string{"Gender:\n1. MALE\n2. FEMALE\n3. OTHER"}, responder.texts)

	// a valid answer still completes with its value
	dc = set.CreateContext(newTurn("MALE", responder), restored)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "MALE", result.Value)
}
