package app

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"study-session-engine/internal/domain"
)

// IdentityProvider exposes the authenticated identity the engine checks
// before committing a session. auth.Adapter satisfies it.
type IdentityProvider interface {
	CurrentUserID() string
}

// Engine drives one quiz attempt through its state machine:
// in_progress -> completed or in_progress -> abandoned. A single caller
// drives transitions; the engine spawns no background work and computes
// elapsed/remaining time on demand from the injected clock.
type Engine struct {
	mu       sync.Mutex
	session  domain.Session
	position map[string]int // question ID -> index in the sequence
	current  int
	shownAt  time.Time
	limit    time.Duration // wall-clock budget, timed mode only
	now      func() time.Time
	identity IdentityProvider
	owner    string // user ID captured at start
}

// StartSession begins an attempt over the given questions. The identity
// provider may be nil for fully anonymous practice; when present, the user
// ID active now owns the session and Finish refuses to run under a
// different one. limit is ignored outside timed mode.
func StartSession(questions []domain.Question, mode domain.Mode, identity IdentityProvider, limit time.Duration) (*Engine, error) {
	return startSessionWithClock(questions, mode, identity, limit, time.Now)
}

// StartSessionWithClock is test-only for deterministic timestamps.
func StartSessionWithClock(questions []domain.Question, mode domain.Mode, identity IdentityProvider, limit time.Duration, now func() time.Time) (*Engine, error) {
	return startSessionWithClock(questions, mode, identity, limit, now)
}

func startSessionWithClock(questions []domain.Question, mode domain.Mode, identity IdentityProvider, limit time.Duration, now func() time.Time) (*Engine, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}

	owner := ""
	if identity != nil {
		owner = identity.CurrentUserID()
	}

	position := make(map[string]int, len(questions))
	for i, q := range questions {
		position[q.ID] = i
	}

	started := now()
	e := &Engine{
		session: domain.Session{
			ID:        uuid.New().String(),
			UserID:    owner,
			Mode:      mode,
			Questions: questions,
			Answers:   make([]domain.Answer, 0, len(questions)),
			StartedAt: started,
			Status:    domain.StatusInProgress,
		},
		position: position,
		shownAt:  started,
		limit:    limit,
		now:      now,
		identity: identity,
		owner:    owner,
	}
	return e, nil
}

// SubmitAnswer records the choice for a question, overwriting any earlier
// answer for it in place. Time spent is measured from when the question was
// last presented. Position does not advance; pacing stays with the caller.
func (e *Engine) SubmitAnswer(questionID string, choice []int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusInProgress {
		return domain.ErrInvalidStateTransition
	}
	if _, ok := e.position[questionID]; !ok {
		return domain.ErrInvalidQuestionReference
	}

	picked := append([]int(nil), choice...)
	sort.Ints(picked)
	answer := domain.Answer{
		QuestionID:  questionID,
		Choice:      picked,
		TimeSpentMs: e.now().Sub(e.shownAt).Milliseconds(),
	}

	for i := range e.session.Answers {
		if e.session.Answers[i].QuestionID == questionID {
			e.session.Answers[i] = answer
			return nil
		}
	}
	e.session.Answers = append(e.session.Answers, answer)
	return nil
}

// Advance moves to the next question and reports whether it moved. A false
// return means the attempt is already on the last question; that is the
// caller's cue to invoke Finish.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusInProgress {
		return false
	}
	if e.current >= len(e.session.Questions)-1 {
		return false
	}
	e.current++
	e.shownAt = e.now()
	return true
}

// Retreat moves to the previous question; moves before the first are
// clamped, not errors.
func (e *Engine) Retreat() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusInProgress {
		return
	}
	if e.current > 0 {
		e.current--
		e.shownAt = e.now()
	}
}

// Current returns the question at the current position.
func (e *Engine) Current() domain.Question {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Questions[e.current]
}

// Index returns the current zero-based position.
func (e *Engine) Index() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Progress reports the fraction of the sequence reached, in (0, 1].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return float64(e.current+1) / float64(len(e.session.Questions))
}

// AnsweredCount returns how many questions have a recorded answer.
func (e *Engine) AnsweredCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.session.Answers)
}

// Elapsed returns wall-clock time since the session started, frozen at the
// end timestamp once the session is terminal.
func (e *Engine) Elapsed() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() time.Duration {
	if e.session.Status != domain.StatusInProgress {
		return e.session.EndedAt.Sub(e.session.StartedAt)
	}
	return e.now().Sub(e.session.StartedAt)
}

// Remaining returns the time left on a timed session, clamped at zero.
// Practice sessions have no budget and always report zero. The engine owns
// no timer; the caller polls Remaining and invokes Finish at expiry.
func (e *Engine) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Mode != domain.ModeTimed || e.limit <= 0 {
		return 0
	}
	left := e.limit - e.elapsedLocked()
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a timed session has used up its budget.
func (e *Engine) Expired() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Mode != domain.ModeTimed || e.limit <= 0 {
		return false
	}
	return e.elapsedLocked() >= e.limit
}

// Finish completes the session and returns its summary. Unanswered
// questions score as incorrect. If the authenticated identity no longer
// matches the one that started the session, the session is abandoned
// instead and ErrIdentityChanged is returned, so a summary can never land
// in another user's history.
func (e *Engine) Finish() (domain.SessionSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusInProgress {
		return domain.SessionSummary{}, domain.ErrInvalidStateTransition
	}

	if e.owner != "" && e.identity != nil && e.identity.CurrentUserID() != e.owner {
		e.session.Status = domain.StatusAbandoned
		e.session.EndedAt = e.now()
		return domain.SessionSummary{}, domain.ErrIdentityChanged
	}

	e.session.Status = domain.StatusCompleted
	e.session.EndedAt = e.now()
	return Summarize(e.session)
}

// Abandon terminates the session without producing a summary. Abandoned
// sessions are never appended to history.
func (e *Engine) Abandon() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != domain.StatusInProgress {
		return domain.ErrInvalidStateTransition
	}
	e.session.Status = domain.StatusAbandoned
	e.session.EndedAt = e.now()
	return nil
}

// Session returns a copy of the underlying session record.
func (e *Engine) Session() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	copied := e.session
	copied.Questions = append([]domain.Question(nil), e.session.Questions...)
	copied.Answers = append([]domain.Answer(nil), e.session.Answers...)
	return copied
}

// Owner returns the user ID that held the session at start, empty for
// anonymous attempts.
func (e *Engine) Owner() string {
	return e.owner
}
