package dialog

import "fmt"

// Status reports how a turn left the dialog stack
type Status int

const (
	// StatusEmpty means no dialog consumed the turn
	StatusEmpty Status = iota
	// StatusWaiting means a dialog prompted and is suspended until the
	// next inbound message
	StatusWaiting
	// StatusComplete means the outermost dialog finished this turn
	StatusComplete
)

// Result is the outcome of advancing the dialog stack for one turn.
// Value carries the outermost dialog's product when Status is complete.
type Result struct {
	Status Status
	Value  any
}

// Dialog is anything that can occupy a frame on the conversation's
// dialog stack: a prompt awaiting one validated input, or a waterfall
// running an ordered step sequence.
type Dialog interface {
	ID() string
	// Begin starts the dialog. Its frame is already on the stack.
	Begin(dc *Context, options any) (Result, error)
	// Continue feeds the current inbound message to the dialog while it
	// is top of stack.
	Continue(dc *Context) (Result, error)
	// Resume hands the dialog the result of a child dialog that just
	// ended.
	Resume(dc *Context, value any) (Result, error)
}

// Frame is the persisted continuation of one active dialog instance:
// which dialog, where in its sequence, and the slot values accumulated
// so far. Frames stack when dialogs nest. Prompt frames keep their
// issued prompt typed so a restored stack can reissue it verbatim;
// Values and Options come back from JSON in generic form and must be
// read through the typed StepContext accessors.
type Frame struct {
	DialogID  string         `json:"dialog_id"`
	StepIndex int            `json:"step_index"`
	Values    map[string]any `json:"values"`
	Prompt    *PromptOptions `json:"prompt,omitempty"`
	Options   any            `json:"options,omitempty"`
}

// newFrame builds a frame for a dialog start. Prompt options land on
// the typed Prompt field so they survive persistence as themselves.
func newFrame(id string, options any) *Frame {
	f := &Frame{DialogID: id, Values: make(map[string]any)}
	if po, ok := options.(PromptOptions); ok {
		f.Prompt = &po
	} else {
		f.Options = options
	}
	return f
}

// Stack is the per-conversation stack of dialog frames
type Stack struct {
	Frames []*Frame
}

// Active returns the top frame, or nil when no dialog is in progress
func (s *Stack) Active() *Frame {
	if len(s.Frames) == 0 {
		return nil
	}
	return s.Frames[len(s.Frames)-1]
}

func (s *Stack) push(f *Frame) { s.Frames = append(s.Frames, f) }
func (s *Stack) pop()          { s.Frames = s.Frames[:len(s.Frames)-1] }
func (s *Stack) Clear()        { s.Frames = nil }
func (s *Stack) Depth() int    { return len(s.Frames) }

// Set is the registry of dialogs available to a conversation
type Set struct {
	dialogs map[string]Dialog
}

// NewSet creates an empty dialog registry
func NewSet() *Set {
	return &Set{dialogs: make(map[string]Dialog)}
}

// Add registers a dialog under its id
func (s *Set) Add(d Dialog) *Set {
	s.dialogs[d.ID()] = d
	return s
}

// Lookup returns the registered dialog for id, or nil
func (s *Set) Lookup(id string) Dialog {
	return s.dialogs[id]
}

// Has reports whether a dialog id is registered
func (s *Set) Has(id string) bool {
	_, ok := s.dialogs[id]
	return ok
}

// CreateContext builds the per-turn execution frame over a conversation's
// dialog stack
func (s *Set) CreateContext(tc *TurnContext, stack *Stack) *Context {
	return &Context{Turn: tc, set: s, stack: stack}
}

// Context is the per-turn execution frame: it resumes the active dialog
// or starts a new one, and reports how the turn ended.
type Context struct {
	Turn  *TurnContext
	set   *Set
	stack *Stack
}

// ActiveFrame returns the frame currently on top of the stack
func (dc *Context) ActiveFrame() *Frame {
	return dc.stack.Active()
}

// Continue feeds the inbound message to the active dialog, if any
func (dc *Context) Continue() (Result, error) {
	frame := dc.stack.Active()
	if frame == nil {
		return Result{Status: StatusEmpty}, nil
	}
	d := dc.set.Lookup(frame.DialogID)
	if d == nil {
		dc.stack.Clear()
		return Result{}, fmt.Errorf("dialog %q active but not registered", frame.DialogID)
	}
	return d.Continue(dc)
}

// Begin pushes a fresh frame for the named dialog and starts it.
// At most one frame per dialog id may be active at a time.
func (dc *Context) Begin(id string, options any) (Result, error) {
	d := dc.set.Lookup(id)
	if d == nil {
		return Result{}, fmt.Errorf("dialog %q not registered", id)
	}
	for _, f := range dc.stack.Frames {
		if f.DialogID == id {
			return Result{}, fmt.Errorf("dialog %q already active", id)
		}
	}
	dc.stack.push(newFrame(id, options))
	return d.Begin(dc, options)
}

// End pops the active frame and yields its value: to the parent dialog
// when one remains, otherwise as the completed turn result.
func (dc *Context) End(value any) (Result, error) {
	dc.stack.pop()
	parent := dc.stack.Active()
	if parent == nil {
		return Result{Status: StatusComplete, Value: value}, nil
	}
	d := dc.set.Lookup(parent.DialogID)
	if d == nil {
		dc.stack.Clear()
		return Result{}, fmt.Errorf("dialog %q active but not registered", parent.DialogID)
	}
	return d.Resume(dc, value)
}

// Replace swaps the active frame for a fresh instance of the named
// dialog carrying new options. Used by self-repeating loops.
func (dc *Context) Replace(id string, options any) (Result, error) {
	dc.stack.pop()
	d := dc.set.Lookup(id)
	if d == nil {
		return Result{}, fmt.Errorf("dialog %q not registered", id)
	}
	dc.stack.push(newFrame(id, options))
	return d.Begin(dc, options)
}

// CancelAll abandons every active dialog for the conversation
func (dc *Context) CancelAll() {
	dc.stack.Clear()
}
