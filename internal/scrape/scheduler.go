package scrape

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler fires one ingestion run at startup and thereafter on a cron
// cadence (daily at 02:00 by default). Every run, scheduled or manually
// triggered, lands in the run log; a failed run waits for the next tick
// rather than retrying early.
type Scheduler struct {
	orch   *Orchestrator
	runlog *RunLog
	cron   *cron.Cron
	spec   string
	logger *log.Logger

	onComplete func(RunRecord)

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewScheduler(orch *Orchestrator, runlog *RunLog, spec string, logger *log.Logger) *Scheduler {
	if spec == "" {
		spec = "0 2 * * *"
	}
	return &Scheduler{
		orch:   orch,
		runlog: runlog,
		cron:   cron.New(),
		spec:   spec,
		logger: logger,
	}
}

// SetOnComplete installs a hook invoked after every logged run (websocket
// broadcast, cache invalidation). Call before Start.
func (s *Scheduler) SetOnComplete(fn func(RunRecord)) {
	s.onComplete = fn
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.orch == nil || s.runlog == nil {
		return fmt.Errorf("nil scheduler")
	}

	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			if s.logger != nil {
				s.logger.Printf("scheduled scrape run skipped: %v", err)
			}
		}
	}); err != nil {
		return fmt.Errorf("bad cron spec %q: %w", s.spec, err)
	}

	// First run happens right away, off the startup path.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.RunOnce(ctx); err != nil && s.logger != nil {
			s.logger.Printf("startup scrape run skipped: %v", err)
		}
	}()

	s.cron.Start()
	if s.logger != nil {
		s.logger.Printf("scrape scheduler started | spec=%q", s.spec)
	}
	return nil
}

// Stop cancels the cron and waits for an in-flight startup run goroutine.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.wg.Wait()
	if s.logger != nil {
		s.logger.Printf("scrape scheduler stopped")
	}
}

// RunOnce performs a full orchestrator run and appends the outcome to the
// run log. Returns ErrRunInProgress without logging when a run is in flight.
func (s *Scheduler) RunOnce(ctx context.Context) (RunRecord, error) {
	rec := RunRecord{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	results, err := s.orch.RunAll(ctx)
	if err != nil {
		if err == ErrRunInProgress {
			return RunRecord{}, err
		}
		rec.Results = results
		rec.Error = err.Error()
		rec.Success = false
	} else {
		rec.Results = results
		rec.Success = true
	}

	if logErr := s.runlog.Append(rec); logErr != nil && s.logger != nil {
		s.logger.Printf("append run log: %v", logErr)
	}
	if s.onComplete != nil {
		s.onComplete(rec)
	}
	return rec, nil
}
