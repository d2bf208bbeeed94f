package scrape

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"freestuffmap/internal/listing"
)

func newTestScheduler(t *testing.T, scrapers []Scraper) (*Scheduler, *RunLog) {
	t.Helper()
	rl, err := NewRunLog(t.TempDir())
	if err != nil {
		t.Fatalf("new run log: %v", err)
	}
	return NewScheduler(NewOrchestrator(scrapers, nil), rl, "0 2 * * *", nil), rl
}

func TestRunOnce_LogsSuccessfulRun(t *testing.T) {
	one := listing.Candidate{Title: "one", AvailableFrom: time.Now()}
	s, rl := newTestScheduler(t, []Scraper{
		&stubScraper{source: "alpha", items: []listing.Candidate{one}},
	})

	var completed []RunRecord
	s.SetOnComplete(func(rec RunRecord) { completed = append(completed, rec) })

	rec, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if rec.RunID == "" || rec.Timestamp == "" {
		t.Fatalf("expected run id and timestamp, got %+v", rec)
	}
	if !rec.Success {
		t.Fatalf("expected success, got %+v", rec)
	}
	if len(rec.Results) != 1 || rec.Results[0] != (SourceResult{Source: "alpha", Count: 1}) {
		t.Fatalf("unexpected results %+v", rec.Results)
	}
	if _, err := time.Parse(time.RFC3339, rec.Timestamp); err != nil {
		t.Fatalf("timestamp not RFC3339: %v", err)
	}

	runs, err := rl.LastRuns(10)
	if err != nil {
		t.Fatalf("last runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != rec.RunID {
		t.Fatalf("expected the run logged, got %+v", runs)
	}
	if len(completed) != 1 || completed[0].RunID != rec.RunID {
		t.Fatalf("expected onComplete fired once, got %+v", completed)
	}
}

func TestRunOnce_ScraperFailureStillLogsRun(t *testing.T) {
	// A scraper blowing up is not a run failure; it just contributes zero.
	s, rl := newTestScheduler(t, []Scraper{
		&stubScraper{source: "alpha", scrapeErr: fmt.Errorf("boom")},
	})

	rec, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !rec.Success {
		t.Fatalf("expected run success despite scraper failure, got %+v", rec)
	}
	if len(rec.Results) != 1 || rec.Results[0].Count != 0 {
		t.Fatalf("unexpected results %+v", rec.Results)
	}

	runs, _ := rl.LastRuns(10)
	if len(runs) != 1 {
		t.Fatalf("expected 1 logged run, got %d", len(runs))
	}
}

func TestRunOnce_InProgressIsNotLogged(t *testing.T) {
	blocked := &stubScraper{
		source:  "slow",
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s, rl := newTestScheduler(t, []Scraper{blocked})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()

	<-blocked.started
	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	close(blocked.release)
	<-done

	runs, err := rl.LastRuns(10)
	if err != nil {
		t.Fatalf("last runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("rejected run must not be logged; got %d records", len(runs))
	}
}

func TestScheduler_StartRunsImmediately(t *testing.T) {
	one := listing.Candidate{Title: "one", AvailableFrom: time.Now()}
	s, _ := newTestScheduler(t, []Scraper{
		&stubScraper{source: "alpha", items: []listing.Candidate{one}},
	})

	gotRec := make(chan RunRecord, 1)
	s.SetOnComplete(func(rec RunRecord) {
		select {
		case gotRec <- rec:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	select {
	case rec := <-gotRec:
		if !rec.Success {
			t.Fatalf("expected immediate run to succeed, got %+v", rec)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no startup run within deadline")
	}
}

func TestScheduler_RejectsBadCronSpec(t *testing.T) {
	rl, err := NewRunLog(t.TempDir())
	if err != nil {
		t.Fatalf("new run log: %v", err)
	}
	s := NewScheduler(NewOrchestrator(nil, nil), rl, "not a cron spec", nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected error for invalid cron spec")
	}
}
