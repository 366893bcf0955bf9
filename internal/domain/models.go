package domain

import "time"

// Mode selects how a study session is run.
type Mode string

const (
	// ModePractice is an untimed attempt the user paces freely.
	ModePractice Mode = "practice"
	// ModeTimed is the exam-style "simulado" variant with a wall-clock limit.
	ModeTimed Mode = "timed"
)

// Status tracks the lifecycle of a session. Transitions are forward-only:
// in_progress -> completed or in_progress -> abandoned, both terminal.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Question is an immutable item from the content catalog. Correct holds the
// indices of the right options, sorted ascending; multi-select questions
// carry more than one index.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"` // 2-6 entries
	Correct     []int    `json:"correct"`
	Topic       string   `json:"topic"`
	Explanation string   `json:"explanation,omitempty"`
}

// Answer records a user's response to one question. Correctness is never
// stored here; it is recomputed against the Question at scoring time.
type Answer struct {
	QuestionID  string `json:"questionId"`
	Choice      []int  `json:"choice"`
	TimeSpentMs int64  `json:"timeSpentMs"`
}

// Session is one quiz attempt. Answers holds at most one entry per
// question; re-answering replaces in place. An empty UserID marks an
// anonymous practice run.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId,omitempty"`
	Mode      Mode       `json:"mode"`
	Questions []Question `json:"questions"`
	Answers   []Answer   `json:"answers"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   time.Time  `json:"endedAt,omitempty"`
	Status    Status     `json:"status"`
}

// AnswerFor returns the recorded answer for a question, if any.
func (s *Session) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range s.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// TopicBreakdown counts correct answers against questions seen for one topic.
type TopicBreakdown struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// SessionSummary is the derived scoring result for a completed session.
// It is immutable once computed; repairs recompute rather than patch.
type SessionSummary struct {
	SessionID      string                    `json:"sessionId"`
	Mode           Mode                      `json:"mode"`
	TotalQuestions int                       `json:"totalQuestions"`
	CorrectCount   int                       `json:"correctCount"`
	ScorePercent   int                       `json:"scorePercent"`
	ElapsedMs      int64                     `json:"elapsedMs"`
	Topics         map[string]TopicBreakdown `json:"topics"`
	CompletedAt    time.Time                 `json:"completedAt"`
}

// Stats aggregates a user's full history log. MeanScorePercent is the mean
// of per-session scores so long sessions do not drown out short ones.
type Stats struct {
	TotalSessions    int                       `json:"totalSessions"`
	MeanScorePercent float64                   `json:"meanScorePercent"`
	Topics           map[string]TopicBreakdown `json:"topics"`
}
