package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"career-assessment-service/internal/app"
	"career-assessment-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"
)

func TestResultRepositoryMirrorsAndRecovers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	repo := NewResultRepository(newClient(mr), time.Hour, 3, zaptest.NewLogger(t))
	repo.GetOrCreate(ctx, "u1").AddResult(domain.AssessmentResult{
		ID:           "r1",
		AssessmentID: "interest",
		Scores:       domain.CategoryScores{{Category: "Social", Score: 4}, {Category: "Artistic", Score: 6}},
		CompletedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	if !mr.Exists("results:u1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("results:u1"); ttl != time.Hour {
		t.Fatalf("expected sliding ttl, got %v", ttl)
	}

	// A fresh repository (new process) recovers the session's results.
	restarted := NewResultRepository(newClient(mr), time.Hour, 3, zaptest.NewLogger(t))
	results := restarted.GetOrCreate(ctx, "u1").Results()
	if len(results) != 1 || results[0].ID != "r1" {
		t.Fatalf("expected recovered result, got %+v", results)
	}
	if results[0].Scores[0].Category != "Social" {
		t.Fatalf("expected category order kept, got %+v", results[0].Scores)
	}

	store := restarted.GetOrCreate(ctx, "u1")
	restarted.Reset(ctx, "u1")
	if mr.Exists("results:u1") {
		t.Fatalf("expected redis key to be removed")
	}
	if restarted.GetOrCreate(ctx, "u1") != store {
		t.Fatalf("reset keeps the store for live subscribers")
	}
}

func TestResultRepositoryConcurrentRehydrate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	seed := NewResultRepository(newClient(mr), time.Hour, 3, zaptest.NewLogger(t))
	seed.GetOrCreate(ctx, "u1").AddResult(domain.AssessmentResult{ID: "r1", AssessmentID: "interest"})

	repo := NewResultRepository(newClient(mr), time.Hour, 3, zaptest.NewLogger(t))
	stores := make([]*app.ResultStore, 8)
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stores[i] = repo.GetOrCreate(ctx, "u1")
		}()
	}
	wg.Wait()

	for i, s := range stores {
		if s != stores[0] {
			t.Fatalf("goroutine %d got a different store", i)
		}
	}
	if stores[0].Len() != 1 {
		t.Fatalf("expected history loaded once, got %d results", stores[0].Len())
	}
}

func TestResultRepositoryMirrorSurvivesOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	ctx := context.Background()
	repo := NewResultRepository(newClient(mr), time.Hour, 3, zaptest.NewLogger(t))
	store := repo.GetOrCreate(ctx, "u1")
	mr.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		store.AddResult(domain.AssessmentResult{ID: "r1", AssessmentID: "interest"})
	}()
	select {
	case <-done:
	case <-time.After(mirrorTimeout + 5*time.Second):
		t.Fatalf("mirror did not give up on an unreachable redis")
	}
	if store.Len() != 1 {
		t.Fatalf("expected result kept locally, got %d", store.Len())
	}
}
