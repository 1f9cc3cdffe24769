package memory

import (
	"sync"

	"career-assessment-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[attemptKey]*app.Attempt
}

type attemptKey struct {
	userID       string
	assessmentID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[attemptKey]*app.Attempt),
	}
}

// Put stores the attempt, replacing any unfinished one for the same user and type.
func (s *AttemptStore) Put(attempt *app.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[attemptKey{attempt.UserID(), attempt.Assessment().ID}] = attempt
}

func (s *AttemptStore) Get(userID, assessmentID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey{userID, assessmentID}]
	return attempt, ok
}

func (s *AttemptStore) Take(userID, assessmentID string) (*app.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{userID, assessmentID}
	attempt, ok := s.attempts[key]
	if ok {
		delete(s.attempts, key)
	}
	return attempt, ok
}

func (s *AttemptStore) Delete(userID, assessmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey{userID, assessmentID})
}

// Len reports the number of in-flight attempts.
func (s *AttemptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}
