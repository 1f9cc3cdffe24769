package app

import (
	"sort"
	"sync"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/scoring"
)

// ResultStore is the append-only record of one user's completed assessments
// for the current session. Subscribers get a fresh Summary after every change.
type ResultStore struct {
	userID   string
	expected int
	onAdd    func(domain.AssessmentResult)

	mu          sync.RWMutex
	results     []domain.AssessmentResult
	subscribers map[chan domain.Summary]struct{}
}

// StoreOption customises a ResultStore at construction.
type StoreOption func(*ResultStore)

// WithHistory seeds the store with results recovered from a backing store.
func WithHistory(results []domain.AssessmentResult) StoreOption {
	return func(s *ResultStore) {
		s.results = append(s.results, results...)
	}
}

// WithAppendHook is invoked (outside the lock) after every AddResult.
func WithAppendHook(fn func(domain.AssessmentResult)) StoreOption {
	return func(s *ResultStore) {
		s.onAdd = fn
	}
}

// NewResultStore creates an empty store expecting the given number of
// distinct assessment types.
func NewResultStore(userID string, expected int, opts ...StoreOption) *ResultStore {
	s := &ResultStore{
		userID:      userID,
		expected:    expected,
		subscribers: make(map[chan domain.Summary]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddResult appends a completed result. Retakes are kept as separate entries.
func (s *ResultStore) AddResult(result domain.AssessmentResult) domain.Summary {
	s.mu.Lock()
	s.results = append(s.results, result)
	summary := s.broadcastLocked()
	s.mu.Unlock()

	if s.onAdd != nil {
		s.onAdd(result)
	}
	return summary
}

// Reset drops every stored result.
func (s *ResultStore) Reset() domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = nil
	return s.broadcastLocked()
}

// Results returns a copy of the stored results in completion order.
func (s *ResultStore) Results() []domain.AssessmentResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AssessmentResult, len(s.results))
	copy(out, s.results)
	return out
}

// Len reports how many results are stored.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results)
}

// CompletionPercentage is completed / expected * 100.
func (s *ResultStore) CompletionPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completionLocked()
}

// HasCompletedAll reports whether exactly the expected number of results is stored.
func (s *ResultStore) HasCompletedAll() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.results) == s.expected
}

// TopSkills averages every category across all results and ranks the
// averages descending. Categories first seen earlier win ties.
func (s *ResultStore) TopSkills() []domain.CategoryScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topSkillsLocked()
}

// Summary bundles the derived views.
func (s *ResultStore) Summary() domain.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaryLocked()
}

// Subscribe returns a channel of summaries. The caller must invoke the
// returned cancel function to avoid leaks.
func (s *ResultStore) Subscribe() (<-chan domain.Summary, func()) {
	ch := make(chan domain.Summary, 8)

	// the buffer is empty here, so the initial send cannot block while
	// holding the lock
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.summaryLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *ResultStore) broadcastLocked() domain.Summary {
	summary := s.summaryLocked()
	for ch := range s.subscribers {
		select {
		case ch <- summary:
		default:
			// slow reader: replace the stale summary with the newest one
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
	return summary
}

func (s *ResultStore) completionLocked() float64 {
	if s.expected <= 0 {
		return 0
	}
	return float64(len(s.results)) / float64(s.expected) * 100
}

func (s *ResultStore) topSkillsLocked() []domain.CategoryScore {
	var order []string
	observed := make(map[string][]float64)
	for _, r := range s.results {
		for _, e := range r.Scores {
			if e.Category == domain.TotalScoreKey {
				continue
			}
			if _, seen := observed[e.Category]; !seen {
				order = append(order, e.Category)
			}
			observed[e.Category] = append(observed[e.Category], e.Score)
		}
	}

	skills := make([]domain.CategoryScore, 0, len(order))
	for _, category := range order {
		values := observed[category]
		var sum float64
		for _, v := range values {
			sum += v
		}
		skills = append(skills, domain.CategoryScore{
			Category: category,
			Score:    scoring.Round(sum / float64(len(values))),
		})
	}
	sort.SliceStable(skills, func(i, j int) bool {
		return skills[i].Score > skills[j].Score
	})
	return skills
}

func (s *ResultStore) summaryLocked() domain.Summary {
	timeline := make([]domain.TimelinePoint, len(s.results))
	for i, r := range s.results {
		timeline[i] = domain.TimelinePoint{
			AssessmentID: r.AssessmentID,
			CompletedAt:  r.CompletedAt,
			Average:      scoring.Mean(r.Scores),
		}
	}
	return domain.Summary{
		UserID:               s.userID,
		Completed:            len(s.results),
		Expected:             s.expected,
		CompletionPercentage: s.completionLocked(),
		HasCompletedAll:      len(s.results) == s.expected,
		TopSkills:            s.topSkillsLocked(),
		Timeline:             timeline,
	}
}
