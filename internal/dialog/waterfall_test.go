package dialog

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// newSurveyWaterfall asks for a name and a count, then ends with a
// summary built from both slots
func newSurveyWaterfall() *Waterfall {
	return NewWaterfall("survey",
		func(sc *StepContext) (Result, error) {
			return sc.Prompt("text", "Name?")
		},
		func(sc *StepContext) (Result, error) {
			sc.SetValue("name", sc.Result())
			return sc.Prompt("num", "Count?")
		},
		func(sc *StepContext) (Result, error) {
			sc.SetValue("count", sc.Result())
			return sc.End(fmt.Sprintf("%s:%d", sc.Value("name"), sc.Value("count")))
		},
	)
}

func surveySet() *Set {
	return NewSet().
		Add(NewTextPrompt("text")).
		Add(NewNumberPrompt("num")).
		Add(newSurveyWaterfall())
}

func TestWaterfall_SuspendsAndResumesWithValuesIntact(t *testing.T) {
	set := surveySet()
	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	result, err := dc.Begin("survey", nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)
	require.Equal(t, 2, stack.Depth()) // flow frame plus prompt frame

	dc = set.CreateContext(newTurn("Asha", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)

	dc = set.CreateContext(newTurn("4", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "Asha:4", result.Value)
	require.Equal(t, 0, stack.Depth())

	require.Equal(t, []string{"Name?", "Count?"}, responder.texts)
}

func TestWaterfall_InvalidInputRepeatsPromptNotStep(t *testing.T) {
	set := surveySet()
	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	_, err := dc.Begin("survey", nil)
	require.NoError(t, err)

	dc = set.CreateContext(newTurn("Asha", responder), stack)
	_, err = dc.Continue()
	require.NoError(t, err)

	// invalid count re-prompts without re-running the name step
	dc = set.CreateContext(newTurn("many", responder), stack)
	result, err := dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)
	require.Equal(t, []string{"Name?", "Count?", "Count?"}, responder.texts)

	dc = set.CreateContext(newTurn("2", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "Asha:2", result.Value)
}

func TestWaterfall_NextSkipsPromptSameTurn(t *testing.T) {
	set := NewSet().Add(NewTextPrompt("text"))
	set.Add(NewWaterfall("prefilled",
		func(sc *StepContext) (Result, error) {
			sc.SetValue("city", "DEL")
			return sc.Next(nil)
		},
		func(sc *StepContext) (Result, error) {
			if !sc.HasValue("city") {
				return sc.Prompt("text", "City?")
			}
			return sc.Next(sc.Value("city"))
		},
		func(sc *StepContext) (Result, error) {
			return sc.End(sc.Result())
		},
	))

	stack := &Stack{}
	responder := &recordingResponder{}
	dc := set.CreateContext(newTurn("", responder), stack)

	result, err := dc.Begin("prefilled", nil)
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "DEL", result.Value)
	require.Empty(t, responder.texts)
}

func TestWaterfall_NestedDialogResumesParent(t *testing.T) {
	set := NewSet().Add(NewTextPrompt("text"))
	set.Add(NewWaterfall("child",
		func(sc *StepContext) (Result, error) {
			return sc.Prompt("text", "Inner?")
		},
		func(sc *StepContext) (Result, error) {
			return sc.End("child says " + sc.Result().(string))
		},
	))
	set.Add(NewWaterfall("parent",
		func(sc *StepContext) (Result, error) {
			return sc.Begin("child", nil)
		},
		func(sc *StepContext) (Result, error) {
			return sc.End(sc.Result())
		},
	))

	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	result, err := dc.Begin("parent", nil)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)
	require.Equal(t, 3, stack.Depth())

	dc = set.CreateContext(newTurn("hello", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "child says hello", result.Value)
	require.Equal(t, 0, stack.Depth())
}

func TestWaterfall_ReplaceRestartsWithFreshValues(t *testing.T) {
	set := NewSet().Add(NewTextPrompt("text"))
	set.Add(NewWaterfall("loop",
		func(sc *StepContext) (Result, error) {
			round := sc.Options().(int)
			require.False(t, sc.HasValue("answer"))
			sc.SetValue("round", round)
			return sc.Prompt("text", fmt.Sprintf("Round %d?", round))
		},
		func(sc *StepContext) (Result, error) {
			sc.SetValue("answer", sc.Result())
			if round := sc.Value("round").(int); round < 2 {
				return sc.Replace(round + 1)
			}
			return sc.End(sc.Value("answer"))
		},
	))

	stack := &Stack{}
	responder := &recordingResponder{}

	dc := set.CreateContext(newTurn("", responder), stack)
	result, err := dc.Begin("loop", 1)
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)

	dc = set.CreateContext(newTurn("first", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusWaiting, result.Status)

	dc = set.CreateContext(newTurn("second", responder), stack)
	result, err = dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusComplete, result.Status)
	require.Equal(t, "second", result.Value)
	require.Equal(t, []string{"Round 1?", "Round 2?"}, responder.texts)
}

func TestContext_BeginRejectsDuplicateActiveDialog(t *testing.T) {
	set := NewSet().Add(NewTextPrompt("text"))
	stack := &Stack{}
	dc := set.CreateContext(newTurn("", &recordingResponder{}), stack)

	_, err := dc.Begin("text", PromptOptions{Text: "?"})
	require.NoError(t, err)

	_, err = dc.Begin("text", PromptOptions{Text: "?"})
	require.Error(t, err)
}

func TestContext_ContinueWithEmptyStackIsEmpty(t *testing.T) {
	set := NewSet()
	dc := set.CreateContext(newTurn("hi", &recordingResponder{}), &Stack{})

	result, err := dc.Continue()
	require.NoError(t, err)
	require.Equal(t, StatusEmpty, result.Status)
}

func TestContext_UnregisteredActiveDialogClearsStack(t *testing.T) {
	set := NewSet()
	stack := &Stack{Frames: []*Frame{{DialogID: "gone", Values: map[string]any{}}}}
	dc := set.CreateContext(newTurn("hi", &recordingResponder{}), stack)

	_, err := dc.Continue()
	require.Error(t, err)
	require.Equal(t, 0, stack.Depth())
}

func TestStepContext_TypedAccessorsAcceptRestoredSlots(t *testing.T) {
	frame := &Frame{DialogID: "survey", Values: map[string]any{
		"adults":  2,
		"from":    "DEL",
		"nonstop": true,
		"offer":   struct{ ID string }{ID: "o-1"},
	}}

	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	restored := &Frame{}
	require.NoError(t, json.Unmarshal(raw, restored))

	sc := &StepContext{frame: restored}
	require.Equal(t, 2, sc.IntValue("adults"))
	require.Equal(t, "DEL", sc.StringValue("from"))
	require.True(t, sc.BoolValue("nonstop"))

	var offer struct{ ID string }
	require.True(t, sc.DecodeValue("offer", &offer))
	require.Equal(t, "o-1", offer.ID)

	require.Equal(t, 0, sc.IntValue("missing"))
	require.False(t, sc.DecodeValue("missing", &offer))
}
