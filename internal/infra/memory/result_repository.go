package memory

import (
	"context"
	"sync"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/domain"
)

// ResultRepository is an in-memory implementation of app.ResultRepository.
// Results live for the lifetime of the process.
type ResultRepository struct {
	expected int

	mu     sync.Mutex
	stores map[string]*app.ResultStore
}

func NewResultRepository(expected int) *ResultRepository {
	return &ResultRepository{
		expected: expected,
		stores:   make(map[string]*app.ResultStore),
	}
}

func (r *ResultRepository) GetOrCreate(_ context.Context, userID string) *app.ResultStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[userID]; ok {
		return store
	}
	store := app.NewResultStore(userID, r.expected)
	r.stores[userID] = store
	return store
}

// Reset empties the user's store in place so live subscribers stay attached.
func (r *ResultRepository) Reset(ctx context.Context, userID string) domain.Summary {
	return r.GetOrCreate(ctx, userID).Reset()
}
