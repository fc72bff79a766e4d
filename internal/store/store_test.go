package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun() *Run {
	return &Run{
		SourceText:   "I think AI is changing everything.",
		FinalText:    "AI is changing a lot, honestly.",
		SourceLang:   "en",
		TargetLang:   "fr",
		MaxRetries:   3,
		PassedInLoop: true,
		FinalVerdict: true,
		Translator:   "mymemory",
		Rewriter:     "openai",
		Attempts: []RunAttempt{
			{Index: 1, Text: "AI changes stuff.", Verdict: false, Failures: []string{"detect: malformed"}},
			{Index: 2, Text: "AI's changing a lot, honestly.", Verdict: true},
		},
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_SaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("expected generated ID")
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.SourceText != run.SourceText || got.FinalText != run.FinalText {
		t.Errorf("texts mismatch: %+v", got)
	}
	if !got.PassedInLoop || !got.FinalVerdict {
		t.Errorf("expected verdict flags to round-trip, got %+v", got)
	}
	if got.Translator != "mymemory" || got.Rewriter != "openai" {
		t.Errorf("unexpected service names %q %q", got.Translator, got.Rewriter)
	}
	if len(got.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(got.Attempts))
	}
	if got.Attempts[0].Index != 1 || got.Attempts[1].Index != 2 {
		t.Errorf("attempts out of order: %+v", got.Attempts)
	}
	if len(got.Attempts[0].Failures) != 1 || got.Attempts[0].Failures[0] != "detect: malformed" {
		t.Errorf("unexpected failures %v", got.Attempts[0].Failures)
	}
	if len(got.Attempts[1].Failures) != 0 {
		t.Errorf("expected no failures, got %v", got.Attempts[1].Failures)
	}
}

func TestStore_SaveRun_KeepsGivenID(t *testing.T) {
	s := newTestStore(t)

	run := sampleRun()
	run.ID = "run-fixed"
	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if run.ID != "run-fixed" {
		t.Errorf("expected ID to be kept, got %q", run.ID)
	}

	if err := s.SaveRun(context.Background(), run); err == nil {
		t.Error("expected duplicate ID to fail")
	}
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := sampleRun()
		run.SourceText = fmt.Sprintf("text %d", i)
		run.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	all, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
	if all[0].SourceText != "text 2" {
		t.Errorf("expected newest first, got %q", all[0].SourceText)
	}
	if all[0].Attempts != nil {
		t.Error("ListRuns should not load attempts")
	}

	limited, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 runs, got %d", len(limited))
	}
}

func TestStore_FindRuns_NormalizesText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	run.SourceText = "  Cafe\u0301 culture  "
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	found, err := s.FindRuns(ctx, "Caf\u00e9 culture")
	if err != nil {
		t.Fatalf("FindRuns failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}
	if found[0].SourceText != run.SourceText {
		t.Errorf("expected original text kept, got %q", found[0].SourceText)
	}

	none, err := s.FindRuns(ctx, "something else")
	if err != nil {
		t.Fatalf("FindRuns failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no matches, got %d", len(none))
	}
}

func TestStore_DeleteRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := sampleRun()
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := s.GetRun(ctx, run.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted run to be gone, got %v", err)
	}
	if err := s.DeleteRun(ctx, run.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalAttempts != 0 {
		t.Errorf("expected attempts to be deleted, got %d", stats.TotalAttempts)
	}
}

func TestStore_ClearRunsAndStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	passed := sampleRun()
	failed := sampleRun()
	failed.PassedInLoop = false
	failed.FinalVerdict = false
	failed.Attempts = []RunAttempt{{Index: 1, Text: "x"}, {Index: 2, Text: "y"}, {Index: 3, Text: "z"}}

	for _, r := range []*Run{passed, failed} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRuns != 2 || stats.PassedInLoop != 1 || stats.PassedFinal != 1 || stats.TotalAttempts != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.AvgAttempts() != 2.5 {
		t.Errorf("expected 2.5 average attempts, got %v", stats.AvgAttempts())
	}

	n, err := s.ClearRuns(ctx)
	if err != nil {
		t.Fatalf("ClearRuns failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}

	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalRuns != 0 || stats.TotalAttempts != 0 || stats.AvgAttempts() != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestStore_ConcurrentSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.SaveRun(ctx, sampleRun())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent SaveRun failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 10 {
		t.Errorf("expected 10 runs, got %d", len(runs))
	}
}

func TestStore_CSVCheckpoint(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateCSVCheckpoint(ctx, "in.csv", "out.csv", "en", "fr")
	if err != nil {
		t.Fatalf("CreateCSVCheckpoint failed: %v", err)
	}

	cp, err := s.GetCSVCheckpoint(ctx, id)
	if err != nil {
		t.Fatalf("GetCSVCheckpoint failed: %v", err)
	}
	if cp.InputFile != "in.csv" || cp.OutputFile != "out.csv" || cp.Status != "running" {
		t.Errorf("unexpected checkpoint %+v", cp)
	}

	if err := s.SaveCSVCell(ctx, id, 1, 2, "first"); err != nil {
		t.Fatalf("SaveCSVCell failed: %v", err)
	}
	if err := s.SaveCSVCell(ctx, id, 1, 2, "second"); err != nil {
		t.Fatalf("SaveCSVCell overwrite failed: %v", err)
	}
	if err := s.SaveCSVCell(ctx, id, 3, 0, "other"); err != nil {
		t.Fatalf("SaveCSVCell failed: %v", err)
	}

	cells, err := s.GetCSVCells(ctx, id)
	if err != nil {
		t.Fatalf("GetCSVCells failed: %v", err)
	}
	if len(cells) != 2 || cells[CellKey(1, 2)] != "second" || cells[CellKey(3, 0)] != "other" {
		t.Errorf("unexpected cells %v", cells)
	}

	if err := s.CompleteCSVCheckpoint(ctx, id); err != nil {
		t.Fatalf("CompleteCSVCheckpoint failed: %v", err)
	}
	cp, err = s.GetCSVCheckpoint(ctx, id)
	if err != nil {
		t.Fatalf("GetCSVCheckpoint failed: %v", err)
	}
	if cp.Status != "completed" {
		t.Errorf("expected completed, got %q", cp.Status)
	}
}

func TestStore_GetCSVCheckpoint_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetCSVCheckpoint(context.Background(), "cp_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("  Cafe\u0301 "); got != "Caf\u00e9" {
		t.Errorf("expected NFC-normalized trimmed text, got %q", got)
	}
}
