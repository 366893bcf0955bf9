package memory

import (
	"context"

	"study-session-engine/internal/domain"
)

// QuestionLoader fetches question sets from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, topic string) ([]domain.Question, error)
}

// StaticQuestionSource serves questions from an in-memory slice (useful
// for tests/demos). Order is stable: catalog order.
type StaticQuestionSource struct {
	questions []domain.Question
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

func (s *StaticQuestionSource) LoadQuestions(_ context.Context, topic string) ([]domain.Question, error) {
	matched := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if topic == "" || q.Topic == topic {
			matched = append(matched, q)
		}
	}
	if len(matched) == 0 {
		return nil, domain.ErrNoQuestions
	}
	return matched, nil
}
