package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-session-engine/internal/domain"
)

func catalog() []domain.Question {
	return []domain.Question{
		{ID: "q1", Prompt: "one", Options: []string{"A", "B"}, Correct: []int{0}, Topic: "math"},
		{ID: "q2", Prompt: "two", Options: []string{"A", "B"}, Correct: []int{1}, Topic: "math"},
		{ID: "q3", Prompt: "three", Options: []string{"A", "B"}, Correct: []int{0}, Topic: "logic"},
	}
}

type countingLoader struct {
	inner QuestionLoader
	loads int
}

func (c *countingLoader) LoadQuestions(ctx context.Context, topic string) ([]domain.Question, error) {
	c.loads++
	return c.inner.LoadQuestions(ctx, topic)
}

func TestStaticSourceFiltersByTopic(t *testing.T) {
	ctx := context.Background()
	source := NewStaticQuestionSource(catalog())

	all, err := source.LoadQuestions(ctx, "")
	if err != nil {
		t.Fatalf("load all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected full catalog, got %d", len(all))
	}

	math, err := source.LoadQuestions(ctx, "math")
	if err != nil {
		t.Fatalf("load math: %v", err)
	}
	if len(math) != 2 {
		t.Fatalf("expected 2 math questions, got %d", len(math))
	}

	if _, err := source.LoadQuestions(ctx, "chemistry"); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
}

func TestRepositoryCachesPerTopic(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{inner: NewStaticQuestionSource(catalog())}
	repo := NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := repo.GetQuestions(ctx, "math", domain.ModePractice); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if loader.loads != 1 {
		t.Fatalf("expected a single backing load, got %d", loader.loads)
	}
}

func TestTimedModeShufflesWithoutChangingTheSet(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository(NewStaticQuestionSource(catalog()), time.Minute)

	questions, err := repo.GetQuestions(ctx, "", domain.ModeTimed)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		seen[q.ID] = true
	}
	for _, id := range []string{"q1", "q2", "q3"} {
		if !seen[id] {
			t.Fatalf("shuffle dropped %s", id)
		}
	}

	// The cached copy must stay in catalog order for later callers.
	ordered, err := repo.GetQuestions(ctx, "", domain.ModePractice)
	if err != nil {
		t.Fatalf("get ordered: %v", err)
	}
	for i, id := range []string{"q1", "q2", "q3"} {
		if ordered[i].ID != id {
			t.Fatalf("cache order disturbed at %d: %s", i, ordered[i].ID)
		}
	}
}
