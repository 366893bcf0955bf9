package app

import (
	"context"

	"study-session-engine/internal/domain"
)

// QuestionRepository loads question sets from the content catalog
// (cache/backing store). The catalog is read-only to the engine; an empty
// topic means the whole catalog.
type QuestionRepository interface {
	GetQuestions(ctx context.Context, topic string, mode domain.Mode) ([]domain.Question, error)
}
