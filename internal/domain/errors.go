package domain

import "errors"

var (
	// ErrEmptyQuestionSet is returned when a session is started without questions.
	ErrEmptyQuestionSet = errors.New("question set is empty")
	// ErrInvalidQuestionReference indicates an answer for a question not in the session.
	ErrInvalidQuestionReference = errors.New("question not part of session")
	// ErrInvalidStateTransition indicates an operation in a terminal or wrong state.
	ErrInvalidStateTransition = errors.New("invalid session state transition")
	// ErrIdentityChanged indicates the authenticated identity changed mid-session.
	ErrIdentityChanged = errors.New("authenticated identity changed during session")
	// ErrStorageUnavailable indicates every persistence backend failed.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrCorruptHistory marks an unreadable history payload. Callers recover by
	// treating the log as empty; it never blocks new writes.
	ErrCorruptHistory = errors.New("corrupt history data")
	// ErrNoQuestions indicates the content catalog has no questions for a request.
	ErrNoQuestions = errors.New("no questions available")
)
