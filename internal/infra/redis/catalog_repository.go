package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogRepository caches assessment documents in Redis and falls back to a loader on cache miss.
// Assessments are stored as: SET catalog:assessment:{id} {json}
// The listing is stored as:   SET catalog:list {json array of ids}
type CatalogRepository struct {
	client *redis.Client
	loader memory.AssessmentLoader
	ttl    time.Duration
	logger *zap.Logger
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader memory.AssessmentLoader, ttl time.Duration, logger *zap.Logger) *CatalogRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	if a, ok := r.cached(ctx, assessmentID); ok {
		return a, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if a, ok := r.cached(ctx, assessmentID); ok {
			return a, nil
		}

		assessment, err := r.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}
		r.store(ctx, assessment)
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

func (r *CatalogRepository) ListAssessments(ctx context.Context) ([]domain.AssessmentInfo, error) {
	if infos, ok := r.cachedListing(ctx); ok {
		return infos, nil
	}

	result, err, _ := r.sf.Do(listKey, func() (interface{}, error) {
		assessments, err := r.loader.ListAssessments(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(assessments))
		infos := make([]domain.AssessmentInfo, len(assessments))
		for i, a := range assessments {
			ids[i] = a.ID
			infos[i] = a.Info()
			r.store(ctx, a)
		}
		if data, err := json.Marshal(ids); err == nil {
			if err := r.client.Set(ctx, listKey, data, r.ttlWithJitter()).Err(); err != nil {
				r.logger.Warn("cache assessment listing failed", zap.Error(err))
			}
		}
		return infos, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.AssessmentInfo), nil
}

// cachedListing rebuilds the listing from cached documents; any missing
// document counts as a miss.
func (r *CatalogRepository) cachedListing(ctx context.Context) ([]domain.AssessmentInfo, bool) {
	raw, err := r.client.Get(ctx, listKey).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	infos := make([]domain.AssessmentInfo, 0, len(ids))
	for _, id := range ids {
		a, ok := r.cached(ctx, id)
		if !ok {
			return nil, false
		}
		infos = append(infos, a.Info())
	}
	return infos, true
}

func (r *CatalogRepository) cached(ctx context.Context, assessmentID string) (domain.Assessment, bool) {
	raw, err := r.client.Get(ctx, assessmentKey(assessmentID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("read cached assessment failed", zap.String("assessment_id", assessmentID), zap.Error(err))
		}
		return domain.Assessment{}, false
	}
	var a domain.Assessment
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.Assessment{}, false
	}
	return a, true
}

// store is best-effort; a failed write only costs a reload.
func (r *CatalogRepository) store(ctx context.Context, a domain.Assessment) {
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, assessmentKey(a.ID), data, r.ttlWithJitter()).Err(); err != nil {
		r.logger.Warn("cache assessment failed", zap.String("assessment_id", a.ID), zap.Error(err))
	}
}

const listKey = "catalog:list"

func assessmentKey(assessmentID string) string {
	return "catalog:assessment:" + assessmentID
}

// ttlWithJitter returns 0 (no expiry) when ttl is unset.
func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
