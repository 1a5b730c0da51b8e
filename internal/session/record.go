// Package session keeps per-user conversation memory.
package session

import "slices"

// MaxTurns is the number of recent exchanges kept per user.
const MaxTurns = 5

// Learning step names exposed by Record.LearningStep.
const (
	StepAwaitingQuestion = "esperando_pregunta"
	StepAwaitingAnswer   = "esperando_respuesta"
)

// Turn is one user message and the reply it got.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// Record is the conversation memory of one user.
type Record struct {
	State           State
	SelectedMajor   string
	CapturedName    string
	PendingQuestion string
	// ResumeState is where a name or learning sub-flow returns to.
	ResumeState State
	RecentTurns []Turn
	LastTopic   string
}

// NewRecord returns the default record for a user never seen before.
func NewRecord() Record {
	return Record{State: StateNew, ResumeState: StateIdle}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	r.RecentTurns = slices.Clone(r.RecentTurns)
	return r
}

// Browsing reports whether course browsing mode is on.
func (r Record) Browsing() bool { return r.State == StateBrowsingCourses }

// AwaitingName reports whether the next message is taken as the user's name.
func (r Record) AwaitingName() bool { return r.State == StateAwaitingName }

// Learning reports whether a teach-the-bot flow is in progress.
func (r Record) Learning() bool {
	return r.State == StateLearningQuestion || r.State == StateLearningAnswer
}

// LearningStep returns the current learning step or "".
func (r Record) LearningStep() string {
	switch r.State {
	case StateLearningQuestion:
		return StepAwaitingQuestion
	case StateLearningAnswer:
		return StepAwaitingAnswer
	default:
		return ""
	}
}

// Apply moves the record through the transition table. Entering a
// sub-flow saves the current state so the sub-flow can return to it;
// a reset clears the whole record.
func (r *Record) Apply(event Event) error {
	next, err := Transition(r.State, event)
	if err != nil {
		return err
	}

	switch {
	case event == EventReset:
		*r = NewRecord()
		return nil
	case next == stateResume:
		next = r.resumeTarget()
		if event == EventAnswerCaptured {
			r.PendingQuestion = ""
		}
	case next == StateAwaitingName || next == StateLearningQuestion:
		r.ResumeState = r.State
	}
	r.State = next
	return nil
}

func (r *Record) resumeTarget() State {
	switch r.ResumeState {
	case StateMajorSelected, StateBrowsingCourses:
		if r.SelectedMajor != "" {
			return r.ResumeState
		}
	}
	return StateIdle
}

// AppendTurn adds an exchange, keeping the last MaxTurns.
func (r *Record) AppendTurn(user, bot string) {
	r.RecentTurns = append(r.RecentTurns, Turn{User: user, Bot: bot})
	if n := len(r.RecentTurns); n > MaxTurns {
		r.RecentTurns = slices.Clone(r.RecentTurns[n-MaxTurns:])
	}
}
