package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-assessment-service/internal/domain"
)

func result(assessmentID string, scores ...domain.CategoryScore) domain.AssessmentResult {
	return domain.AssessmentResult{
		AssessmentID: assessmentID,
		Scores:       scores,
		CompletedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTopSkillsAveragesAcrossResults(t *testing.T) {
	store := NewResultStore("u1", 3)
	store.AddResult(result("aptitude", domain.CategoryScore{Category: "X", Score: 60}))
	store.AddResult(result("interest", domain.CategoryScore{Category: "X", Score: 80}))

	skills := store.TopSkills()
	require.Len(t, skills, 1)
	assert.Equal(t, domain.CategoryScore{Category: "X", Score: 70}, skills[0])
}

func TestTopSkillsIgnoresTotalAndKeepsTieOrder(t *testing.T) {
	store := NewResultStore("u1", 3)
	store.AddResult(result("interest",
		domain.CategoryScore{Category: "Social", Score: 5},
		domain.CategoryScore{Category: "Artistic", Score: 9},
		domain.CategoryScore{Category: "Realistic", Score: 5},
		domain.CategoryScore{Category: domain.TotalScoreKey, Score: 19},
	))
	store.AddResult(result("aptitude", domain.CategoryScore{Category: "Verbal", Score: 2.5}))

	skills := store.TopSkills()
	require.Len(t, skills, 4)
	assert.Equal(t, []string{"Artistic", "Social", "Realistic", "Verbal"}, categories(skills))
	assert.Equal(t, 3.0, skills[3].Score, "half rounds up")
}

func TestCompletionAndHasCompletedAll(t *testing.T) {
	store := NewResultStore("u1", 3)
	assert.Equal(t, 0.0, store.CompletionPercentage())

	store.AddResult(result("interest"))
	store.AddResult(result("aptitude"))
	assert.False(t, store.HasCompletedAll())
	assert.InDelta(t, 66.67, store.CompletionPercentage(), 0.01)

	store.AddResult(result("nonconventional"))
	assert.True(t, store.HasCompletedAll())
	assert.Equal(t, 100.0, store.CompletionPercentage())

	store.AddResult(result("interest"))
	assert.False(t, store.HasCompletedAll(), "retakes push the count past expected")
	assert.Len(t, store.Results(), 4)
}

func TestCompletionWithoutExpected(t *testing.T) {
	store := NewResultStore("u1", 0)
	store.AddResult(result("interest"))
	assert.Equal(t, 0.0, store.CompletionPercentage())
}

func TestSummaryTimeline(t *testing.T) {
	store := NewResultStore("u1", 3)
	summary := store.AddResult(result("interest",
		domain.CategoryScore{Category: "A", Score: 4},
		domain.CategoryScore{Category: "B", Score: 2},
		domain.CategoryScore{Category: domain.TotalScoreKey, Score: 6},
	))

	require.Len(t, summary.Timeline, 1)
	assert.Equal(t, "interest", summary.Timeline[0].AssessmentID)
	assert.Equal(t, 3.0, summary.Timeline[0].Average)
	assert.Equal(t, "u1", summary.UserID)
	assert.Equal(t, 1, summary.Completed)
}

func TestSubscribeReceivesSummaries(t *testing.T) {
	store := NewResultStore("u1", 3)
	ch, cancel := store.Subscribe()

	initial := <-ch
	assert.Equal(t, 0, initial.Completed)

	store.AddResult(result("interest", domain.CategoryScore{Category: "A", Score: 1}))
	update := <-ch
	assert.Equal(t, 1, update.Completed)

	store.Reset()
	update = <-ch
	assert.Equal(t, 0, update.Completed)

	cancel()
	_, open := <-ch
	assert.False(t, open)
	cancel()
}

func TestSlowSubscriberKeepsNewest(t *testing.T) {
	store := NewResultStore("u1", 100)
	ch, cancel := store.Subscribe()
	defer cancel()

	for i := 0; i < 20; i++ {
		store.AddResult(result("interest"))
	}

	var last domain.Summary
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, 20, last.Completed)
}

func TestSubscribeDuringBroadcastsDoesNotBlock(t *testing.T) {
	store := NewResultStore("u1", 1000)

	stop := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for i := 0; i < 2000; i++ {
			select {
			case <-stop:
				return
			default:
				store.AddResult(result("interest"))
			}
		}
	}()

	subscribed := make(chan struct{})
	go func() {
		defer close(subscribed)
		for i := 0; i < 200; i++ {
			// never read: the buffer fills while broadcasts keep coming
			_, cancel := store.Subscribe()
			cancel()
		}
	}()

	select {
	case <-subscribed:
	case <-time.After(5 * time.Second):
		t.Fatal("subscribe blocked while results were being added")
	}
	close(stop)
	select {
	case <-writerDone:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on a subscriber")
	}
}

func TestAppendHookAndHistory(t *testing.T) {
	var seen []string
	store := NewResultStore("u1", 3,
		WithHistory([]domain.AssessmentResult{result("interest")}),
		WithAppendHook(func(r domain.AssessmentResult) { seen = append(seen, r.AssessmentID) }),
	)
	store.AddResult(result("aptitude"))

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, []string{"aptitude"}, seen)
}

func categories(scores []domain.CategoryScore) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Category
	}
	return out
}
