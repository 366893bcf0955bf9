package app

import (
	"math"

	"study-session-engine/internal/domain"
)

// Summarize derives the scoring result for a completed session. It is a
// pure function of the session and its question definitions: re-running it
// yields an identical summary, which is what makes history repair by
// re-derivation safe. The denominator is always the full question-set
// length, so unanswered questions count as incorrect.
func Summarize(session domain.Session) (domain.SessionSummary, error) {
	if session.Status != domain.StatusCompleted {
		return domain.SessionSummary{}, domain.ErrInvalidStateTransition
	}

	total := len(session.Questions)
	correct := 0
	topics := make(map[string]domain.TopicBreakdown, 4)

	for _, q := range session.Questions {
		breakdown := topics[q.Topic]
		breakdown.Total++
		if answer, ok := session.AnswerFor(q.ID); ok && choiceMatches(q.Correct, answer.Choice) {
			correct++
			breakdown.Correct++
		}
		topics[q.Topic] = breakdown
	}

	return domain.SessionSummary{
		SessionID:      session.ID,
		Mode:           session.Mode,
		TotalQuestions: total,
		CorrectCount:   correct,
		ScorePercent:   scorePercent(correct, total),
		ElapsedMs:      session.EndedAt.Sub(session.StartedAt).Milliseconds(),
		Topics:         topics,
		CompletedAt:    session.EndedAt,
	}, nil
}

// AggregateHistory folds a history log into cross-session statistics.
// Accuracy is the mean of per-session scores rather than pooled
// correct/total, so a long simulado does not drown out short practice runs.
// An empty log yields zero-valued stats, not an error.
func AggregateHistory(log []domain.SessionSummary) domain.Stats {
	stats := domain.Stats{Topics: make(map[string]domain.TopicBreakdown)}
	if len(log) == 0 {
		return stats
	}

	scoreSum := 0
	for _, summary := range log {
		stats.TotalSessions++
		scoreSum += summary.ScorePercent
		for topic, breakdown := range summary.Topics {
			rolling := stats.Topics[topic]
			rolling.Correct += breakdown.Correct
			rolling.Total += breakdown.Total
			stats.Topics[topic] = rolling
		}
	}
	stats.MeanScorePercent = float64(scoreSum) / float64(stats.TotalSessions)
	return stats
}

// choiceMatches requires the chosen set to exactly equal the correct set.
// Multi-select questions get no partial credit. Both slices are sorted:
// Question.Correct by contract, Answer.Choice by the engine.
func choiceMatches(correct, choice []int) bool {
	if len(correct) != len(choice) {
		return false
	}
	for i := range correct {
		if correct[i] != choice[i] {
			return false
		}
	}
	return len(correct) > 0
}

func scorePercent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
