package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"career-assessment-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// AssessmentLoader fetches assessment content from a backing store
// (embedded catalog, directory, Postgres).
type AssessmentLoader interface {
	LoadAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error)
	ListAssessments(ctx context.Context) ([]domain.Assessment, error)
}

const listKey = "\x00list"

// CatalogRepository caches assessments with TTL to avoid repeated loads.
type CatalogRepository struct {
	loader AssessmentLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu      sync.RWMutex
	cache   map[string]cachedAssessment
	listing cachedListing
}

type cachedAssessment struct {
	assessment domain.Assessment
	expiresAt  time.Time
}

type cachedListing struct {
	infos     []domain.AssessmentInfo
	expiresAt time.Time
}

func NewCatalogRepository(loader AssessmentLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedAssessment),
	}
}

func (r *CatalogRepository) GetAssessment(ctx context.Context, assessmentID string) (domain.Assessment, error) {
	if a, ok := r.cached(assessmentID); ok {
		return a, nil
	}

	result, err, _ := r.sf.Do(assessmentID, func() (interface{}, error) {
		if a, ok := r.cached(assessmentID); ok {
			return a, nil
		}

		assessment, err := r.loader.LoadAssessment(ctx, assessmentID)
		if err != nil {
			return domain.Assessment{}, err
		}

		r.mu.Lock()
		r.cache[assessmentID] = cachedAssessment{
			assessment: assessment,
			expiresAt:  r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return assessment, nil
	})
	if err != nil {
		return domain.Assessment{}, err
	}
	return result.(domain.Assessment), nil
}

// ListAssessments returns the catalog listing in catalog order.
func (r *CatalogRepository) ListAssessments(ctx context.Context) ([]domain.AssessmentInfo, error) {
	r.mu.RLock()
	if r.listing.infos != nil && r.listing.expiresAt.After(r.clock()) {
		infos := r.listing.infos
		r.mu.RUnlock()
		return infos, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(listKey, func() (interface{}, error) {
		assessments, err := r.loader.ListAssessments(ctx)
		if err != nil {
			return nil, err
		}
		infos := make([]domain.AssessmentInfo, len(assessments))

		r.mu.Lock()
		expiresAt := r.clock().Add(r.ttlWithJitter())
		for i, a := range assessments {
			infos[i] = a.Info()
			r.cache[a.ID] = cachedAssessment{assessment: a, expiresAt: expiresAt}
		}
		r.listing = cachedListing{infos: infos, expiresAt: expiresAt}
		r.mu.Unlock()
		return infos, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.AssessmentInfo), nil
}

func (r *CatalogRepository) cached(assessmentID string) (domain.Assessment, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[assessmentID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.Assessment{}, false
	}
	return entry.assessment, true
}

// ttlWithJitter must be called with r.mu held; rand.Rand is not goroutine safe.
func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
