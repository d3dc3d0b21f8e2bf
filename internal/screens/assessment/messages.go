package assessment

import "github.com/abhisek/englevel/internal/attempt"

// startedMsg is sent when the attempt has been created.
type startedMsg struct {
	View *attempt.View
	Err  error
}
