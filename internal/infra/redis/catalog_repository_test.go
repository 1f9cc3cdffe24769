package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"career-assessment-service/internal/catalog"
	"career-assessment-service/internal/domain"
	"career-assessment-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"
)

func TestCatalogRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AssessmentLoader: sampleCatalog(t)}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, zaptest.NewLogger(t))

	a, err := repo.GetAssessment(context.Background(), "skills")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if len(a.Questions) != 1 || a.Questions[0].Options[1].Score != 2 {
		t.Fatalf("unexpected assessment %+v", a)
	}
	if loader.loads.Load() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.loads.Load())
	}
	if !mr.Exists("catalog:assessment:skills") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("catalog:assessment:skills"); ttl < time.Minute || ttl > 66*time.Second {
		t.Fatalf("expected ttl with jitter, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	_, _ = repo.GetAssessment(context.Background(), "skills")
	if loader.loads.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.loads.Load())
	}
}

func TestCatalogRepositoryListingFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{AssessmentLoader: sampleCatalog(t)}
	repo := NewCatalogRepository(newClient(mr), loader, time.Minute, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		infos, err := repo.ListAssessments(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(infos) != 1 || infos[0].ID != "skills" || infos[0].QuestionCount != 1 {
			t.Fatalf("unexpected listing %+v", infos)
		}
	}
	if loader.lists.Load() != 1 {
		t.Fatalf("expected one listing load, got %d", loader.lists.Load())
	}

	// A missing document invalidates the cached listing.
	mr.Del("catalog:assessment:skills")
	_, _ = repo.ListAssessments(context.Background())
	if loader.lists.Load() != 2 {
		t.Fatalf("expected reload after eviction, got %d", loader.lists.Load())
	}
}

func TestCatalogRepositoryUnknownAssessment(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewCatalogRepository(newClient(mr), sampleCatalog(t), time.Minute, nil)
	if _, err := repo.GetAssessment(context.Background(), "missing"); !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type countingLoader struct {
	memory.AssessmentLoader
	loads atomic.Int32
	lists atomic.Int32
}

func (l *countingLoader) LoadAssessment(ctx context.Context, id string) (domain.Assessment, error) {
	l.loads.Add(1)
	return l.AssessmentLoader.LoadAssessment(ctx, id)
}

func (l *countingLoader) ListAssessments(ctx context.Context) ([]domain.Assessment, error) {
	l.lists.Add(1)
	return l.AssessmentLoader.ListAssessments(ctx)
}

func sampleCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(domain.Assessment{
		ID:    "skills",
		Title: "Skills",
		Mode:  domain.ModeAdditive,
		Questions: []domain.Question{
			{
				ID:       "q1",
				Prompt:   "I enjoy fixing engines",
				Category: "Realistic",
				Options: []domain.Option{
					{Text: "No", Score: 0},
					{Text: "Yes", Score: 2},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	return c
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
