package placement

import "fmt"

// ErrInsufficientQuestionPool is returned by Start when the pool cannot
// supply one question per topic for every slot.
type ErrInsufficientQuestionPool struct {
	Questions int // usable questions in the pool
	Topics    int // distinct topics among them
	Required  int
}

func (e *ErrInsufficientQuestionPool) Error() string {
	return fmt.Sprintf("insufficient question pool: %d questions over %d topics, need %d distinct topics",
		e.Questions, e.Topics, e.Required)
}

// ErrInvalidAnswerSubmission is returned by SubmitAnswer when the answer
// cannot be accepted. The session is unchanged and the caller may retry.
type ErrInvalidAnswerSubmission struct {
	Reason string
}

func (e *ErrInvalidAnswerSubmission) Error() string {
	return "invalid answer submission: " + e.Reason
}

// ErrSessionNotActive is returned when an operation is called in a state
// that does not allow it.
type ErrSessionNotActive struct {
	Op    string
	State State
}

func (e *ErrSessionNotActive) Error() string {
	return fmt.Sprintf("%s: session is %s", e.Op, e.State)
}

// ErrCorruptSnapshot is returned by Restore for a snapshot that violates
// the session invariants.
type ErrCorruptSnapshot struct {
	Reason string
}

func (e *ErrCorruptSnapshot) Error() string {
	return "corrupt session snapshot: " + e.Reason
}
