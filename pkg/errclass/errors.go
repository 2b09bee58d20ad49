package errclass

import "fmt"

// ScoreboxError is a stable, machine-readable error class.
type ScoreboxError struct {
	Code    string
	Message string
}

func (e *ScoreboxError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScoreboxError) Is(target error) bool {
	t, ok := target.(*ScoreboxError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new ScoreboxError with the same Code but a specific message.
func (e *ScoreboxError) WithMessage(msg string) *ScoreboxError {
	return &ScoreboxError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new ScoreboxError with a formatted message.
func (e *ScoreboxError) WithMessagef(format string, args ...any) *ScoreboxError {
	return &ScoreboxError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes. "Not configured yet" is deliberately not an
// error class: the store reports that state as a nil rubric, so a
// corrupted blob (E_STORAGE) can never be mistaken for first-run.
var (
	ErrConfigInvalid       = &ScoreboxError{Code: "E_CONFIG_INVALID"}
	ErrStorage             = &ScoreboxError{Code: "E_STORAGE"}
	ErrSnapshotUnavailable = &ScoreboxError{Code: "E_SNAPSHOT_UNAVAILABLE"}
	ErrEvaluationSkipped   = &ScoreboxError{Code: "E_EVALUATION_SKIPPED"}
	ErrVersionInvalid      = &ScoreboxError{Code: "E_VERSION_INVALID"}
	ErrNameInvalid         = &ScoreboxError{Code: "E_NAME_INVALID"}
	ErrCooldownActive      = &ScoreboxError{Code: "E_COOLDOWN_ACTIVE"}
	ErrAnswerIncorrect     = &ScoreboxError{Code: "E_ANSWER_INCORRECT"}
	ErrHistoryChainBroken  = &ScoreboxError{Code: "E_HISTORY_CHAIN_BROKEN"}
	ErrLockConflict        = &ScoreboxError{Code: "E_LOCK_CONFLICT"}
	ErrLockNotHeld         = &ScoreboxError{Code: "E_LOCK_NOT_HELD"}
	ErrLockExpired         = &ScoreboxError{Code: "E_LOCK_EXPIRED"}
)
