// Package scoring folds answer records into category scores and ranks them.
package scoring

import (
	"math"

	"career-assessment-service/internal/domain"
)

// Aggregate converts an answer record into per-category scores.
//
// Answers referencing unknown questions or out-of-range options are treated
// as unanswered. Categories without a single answered question are omitted.
// The result lists categories in the order their first answered question
// appears in questions.
func Aggregate(questions []domain.Question, answers domain.AnswerRecord, mode domain.ScoringMode) domain.CategoryScores {
	if mode == domain.ModeNormalized {
		return aggregateNormalized(questions, answers)
	}
	return aggregateAdditive(questions, answers)
}

func aggregateAdditive(questions []domain.Question, answers domain.AnswerRecord) domain.CategoryScores {
	var scores domain.CategoryScores
	for _, q := range questions {
		opt, ok := selectedOption(q, answers)
		if !ok {
			continue
		}
		current, _ := scores.Get(q.Category)
		scores = scores.Set(q.Category, current+opt.Score)
	}
	return scores
}

func aggregateNormalized(questions []domain.Question, answers domain.AnswerRecord) domain.CategoryScores {
	counts := make(map[string]int)
	for _, q := range questions {
		counts[q.Category]++
	}

	var sums domain.CategoryScores
	for _, q := range questions {
		idx, ok := answers[q.ID]
		if !ok || idx < 0 || idx >= len(q.Options) {
			continue
		}
		position := 100.0
		if len(q.Options) > 1 {
			position = float64(idx) / float64(len(q.Options)-1) * 100
		}
		current, _ := sums.Get(q.Category)
		sums = sums.Set(q.Category, current+position)
	}

	for i := range sums {
		sums[i].Score = Round(sums[i].Score / float64(counts[sums[i].Category]))
	}
	return sums
}

func selectedOption(q domain.Question, answers domain.AnswerRecord) (domain.Option, bool) {
	idx, ok := answers[q.ID]
	if !ok || idx < 0 || idx >= len(q.Options) {
		return domain.Option{}, false
	}
	return q.Options[idx], true
}

// Total sums every category except the synthetic total entry.
func Total(scores domain.CategoryScores) float64 {
	var sum float64
	for _, e := range scores {
		if e.Category == domain.TotalScoreKey {
			continue
		}
		sum += e.Score
	}
	return sum
}

// WithTotal returns a copy of scores ending with a "Total Score" entry.
func WithTotal(scores domain.CategoryScores) domain.CategoryScores {
	out := scores.Without(domain.TotalScoreKey)
	return append(out, domain.CategoryScore{Category: domain.TotalScoreKey, Score: Total(scores)})
}

// Mean is the arithmetic mean of the category values, 0 when there are none.
func Mean(scores domain.CategoryScores) float64 {
	n := 0
	for _, e := range scores {
		if e.Category != domain.TotalScoreKey {
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return Total(scores) / float64(n)
}

// Round rounds half toward positive infinity.
func Round(v float64) float64 {
	return math.Floor(v + 0.5)
}
