package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const mirrorTimeout = 3 * time.Second

// ResultRepository is a Redis-aware implementation of app.ResultRepository.
// Notes:
//   - It keeps a local in-memory map of stores to reuse the in-process
//     summary broadcast logic.
//   - Every appended result is mirrored to a Redis list (best-effort) with a
//     sliding TTL, so a restarted instance recovers the session's results.
type ResultRepository struct {
	client   *redis.Client
	ttl      time.Duration
	expected int
	logger   *zap.Logger

	mu     sync.RWMutex
	stores map[string]*app.ResultStore
}

func NewResultRepository(client *redis.Client, ttl time.Duration, expected int, logger *zap.Logger) *ResultRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultRepository{
		client:   client,
		ttl:      ttl,
		expected: expected,
		logger:   logger,
		stores:   make(map[string]*app.ResultStore),
	}
}

// GetOrCreate loads the mirrored history outside the lock so a slow Redis
// only delays the user being rehydrated.
func (r *ResultRepository) GetOrCreate(ctx context.Context, userID string) *app.ResultStore {
	r.mu.RLock()
	store, ok := r.stores[userID]
	r.mu.RUnlock()
	if ok {
		return store
	}

	history := r.history(ctx, userID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores[userID]; ok {
		return store
	}
	store = app.NewResultStore(userID, r.expected,
		app.WithHistory(history),
		app.WithAppendHook(func(result domain.AssessmentResult) {
			r.mirror(userID, result)
		}),
	)
	r.stores[userID] = store
	return store
}

func (r *ResultRepository) Reset(ctx context.Context, userID string) domain.Summary {
	summary := r.GetOrCreate(ctx, userID).Reset()
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		r.logger.Warn("clear mirrored results failed", zap.String("user_id", userID), zap.Error(err))
	}
	return summary
}

func (r *ResultRepository) history(ctx context.Context, userID string) []domain.AssessmentResult {
	raw, err := r.client.LRange(ctx, r.key(userID), 0, -1).Result()
	if err != nil {
		r.logger.Warn("load mirrored results failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	results := make([]domain.AssessmentResult, 0, len(raw))
	for _, item := range raw {
		var result domain.AssessmentResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			r.logger.Warn("skip corrupt mirrored result", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results
}

func (r *ResultRepository) mirror(userID string, result domain.AssessmentResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, r.key(userID), data)
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key(userID), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("mirror result failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func (r *ResultRepository) key(userID string) string {
	return "results:" + userID
}
