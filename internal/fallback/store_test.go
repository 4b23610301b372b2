package fallback

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/edumatrix/edumatrix-backend/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fallback.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	examID := uuid.New()

	first, created, err := store.Start(ctx, examID, 42, "Asha")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !created {
		t.Fatal("first Start() should create a row")
	}

	second, created, err := store.Start(ctx, examID, 42, "Asha")
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if created {
		t.Fatal("second Start() must not create a row")
	}
	if second.ID != first.ID {
		t.Errorf("second Start() id = %s, want %s", second.ID, first.ID)
	}
}

func TestStartSeparateStudents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	examID := uuid.New()

	a, _, err := store.Start(ctx, examID, 1, "A")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	b, _, err := store.Start(ctx, examID, 2, "B")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if a.ID == b.ID {
		t.Error("different students must get different submissions")
	}
}

func TestSaveProgressAndResume(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	examID := uuid.New()

	sub, _, err := store.Start(ctx, examID, 7, "Ravi")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	answers := map[string]int{"q1": 2, "q2": 0}
	if err := store.SaveProgress(ctx, sub.ID, answers); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	// Simulate resume: Start again and expect the saved answers back.
	resumed, created, err := store.Start(ctx, examID, 7, "Ravi")
	if err != nil {
		t.Fatalf("resume Start() error = %v", err)
	}
	if created {
		t.Fatal("resume must not create a new row")
	}
	if len(resumed.Answers) != 2 || resumed.Answers["q1"] != 2 {
		t.Errorf("resumed answers = %v, want %v", resumed.Answers, answers)
	}
}

func TestSaveProgressOverwritesWholeMap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub, _, err := store.Start(ctx, uuid.New(), 7, "Ravi")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := store.SaveProgress(ctx, sub.ID, map[string]int{"q1": 1, "q2": 3}); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}
	if err := store.SaveProgress(ctx, sub.ID, map[string]int{"q2": 0}); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	got, err := store.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if _, ok := got.Answers["q1"]; ok {
		t.Error("q1 should be gone after full-map overwrite")
	}
	if got.Answers["q2"] != 0 {
		t.Errorf("q2 = %d, want 0", got.Answers["q2"])
	}
}

func TestFinalizeGuards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub, _, err := store.Start(ctx, uuid.New(), 9, "Mira")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := store.Finalize(ctx, sub.ID, map[string]int{"q1": 1}, 5, true); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	got, err := store.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Score != 5 || !got.Late || got.SubmittedAt == nil {
		t.Errorf("finalized row = score %d late %v submitted_at %v", got.Score, got.Late, got.SubmittedAt)
	}

	if err := store.Finalize(ctx, sub.ID, nil, 0, false); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("second Finalize() error = %v, want ErrAlreadySubmitted", err)
	}
	if err := store.SaveProgress(ctx, sub.ID, map[string]int{"q1": 0}); !errors.Is(err, ErrAlreadySubmitted) {
		t.Errorf("SaveProgress() after finalize error = %v, want ErrAlreadySubmitted", err)
	}
}

// A student's submit and the expiry sweep can race to finalize the same
// attempt. The guarded update lets exactly one through; every other caller
// must see ErrAlreadySubmitted, and the winner's answers must stick.
func TestFinalizeConcurrentExactlyOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sub, _, err := store.Start(ctx, uuid.New(), 11, "Devi")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	const racers = 8
	errs := make([]error, racers)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.Finalize(ctx, sub.ID, map[string]int{"q1": i}, i, false)
		}(i)
	}
	close(start)
	wg.Wait()

	wins := 0
	for i, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadySubmitted):
		default:
			t.Errorf("Finalize() racer %d error = %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("finalize succeeded %d times, want exactly once", wins)
	}

	got, err := store.GetByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Status != model.SubmissionStatusSubmitted {
		t.Errorf("status = %s, want %s", got.Status, model.SubmissionStatusSubmitted)
	}
	// The row must reflect the single winner, not a blend of racers.
	if got.Answers["q1"] != got.Score {
		t.Errorf("answers/score mismatch: q1 = %d, score = %d", got.Answers["q1"], got.Score)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := store.SaveProgress(ctx, uuid.New(), nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("SaveProgress() error = %v, want ErrNotFound", err)
	}
}
