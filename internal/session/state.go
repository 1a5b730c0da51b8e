package session

import "fmt"

// State is the conversation state of one user.
type State int

// Conversation states.
const (
	StateNew State = iota
	StateAwaitingName
	StateIdle
	StateMajorSelected
	StateBrowsingCourses
	StateLearningQuestion
	StateLearningAnswer
)

// stateResume marks a transition whose target is the state saved when the
// sub-flow started.
const stateResume State = -1

var stateNames = map[State]string{
	StateNew:              "NEW",
	StateAwaitingName:     "AWAITING_NAME",
	StateIdle:             "IDLE",
	StateMajorSelected:    "MAJOR_SELECTED",
	StateBrowsingCourses:  "BROWSING_COURSES",
	StateLearningQuestion: "LEARNING_QUESTION",
	StateLearningAnswer:   "LEARNING_ANSWER",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event drives a state transition.
type Event int

// Conversation events.
const (
	EventTalk Event = iota
	EventAskName
	EventNameCaptured
	EventSelectMajor
	EventBrowse
	EventStartLearning
	EventQuestionCaptured
	EventAnswerCaptured
	EventReset
)

var eventNames = map[Event]string{
	EventTalk:             "talk",
	EventAskName:          "ask_name",
	EventNameCaptured:     "name_captured",
	EventSelectMajor:      "select_major",
	EventBrowse:           "browse",
	EventStartLearning:    "start_learning",
	EventQuestionCaptured: "question_captured",
	EventAnswerCaptured:   "answer_captured",
	EventReset:            "reset",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// transitions lists every allowed move. Reset is accepted everywhere and
// handled in Transition.
var transitions = map[State]map[Event]State{
	StateNew: {
		EventTalk:          StateIdle,
		EventAskName:       StateAwaitingName,
		EventSelectMajor:   StateMajorSelected,
		EventBrowse:        StateBrowsingCourses,
		EventStartLearning: StateLearningQuestion,
	},
	StateAwaitingName: {
		EventNameCaptured: stateResume,
	},
	StateIdle: {
		EventTalk:          StateIdle,
		EventAskName:       StateAwaitingName,
		EventSelectMajor:   StateMajorSelected,
		EventBrowse:        StateBrowsingCourses,
		EventStartLearning: StateLearningQuestion,
	},
	StateMajorSelected: {
		EventTalk:          StateMajorSelected,
		EventAskName:       StateAwaitingName,
		EventSelectMajor:   StateMajorSelected,
		EventBrowse:        StateBrowsingCourses,
		EventStartLearning: StateLearningQuestion,
	},
	StateBrowsingCourses: {
		EventTalk:          StateBrowsingCourses,
		EventAskName:       StateAwaitingName,
		EventSelectMajor:   StateMajorSelected,
		EventBrowse:        StateBrowsingCourses,
		EventStartLearning: StateLearningQuestion,
	},
	StateLearningQuestion: {
		EventQuestionCaptured: StateLearningAnswer,
	},
	StateLearningAnswer: {
		EventAnswerCaptured: stateResume,
	},
}

// ErrInvalidTransition is returned for a move missing from the table.
type ErrInvalidTransition struct {
	From  State
	Event Event
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("session: no transition from %s on %s", e.From, e.Event)
}

// Transition returns the state reached from `from` on event. The returned
// state may be the internal resume marker; use Record.Apply to resolve it.
func Transition(from State, event Event) (State, error) {
	if event == EventReset {
		return StateNew, nil
	}
	next, ok := transitions[from][event]
	if !ok {
		return from, &ErrInvalidTransition{From: from, Event: event}
	}
	return next, nil
}
