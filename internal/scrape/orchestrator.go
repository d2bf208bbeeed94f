package scrape

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
)

// SourceResult is one scraper's contribution to a run summary.
type SourceResult struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// ErrRunInProgress rejects a second run while one is in flight; callers are
// expected to surface it (HTTP 409) rather than queue behind it.
var ErrRunInProgress = errors.New("scrape run already in progress")

// Orchestrator drives the registered scrapers in order. A scraper failing at
// either step contributes a zero count and never stops its siblings; the only
// run-level failure is cancellation.
type Orchestrator struct {
	scrapers []Scraper
	logger   *log.Logger
	running  atomic.Bool
}

func NewOrchestrator(scrapers []Scraper, logger *log.Logger) *Orchestrator {
	return &Orchestrator{scrapers: scrapers, logger: logger}
}

func (o *Orchestrator) RunAll(ctx context.Context) ([]SourceResult, error) {
	if o == nil {
		return nil, fmt.Errorf("nil orchestrator")
	}
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	results := make([]SourceResult, 0, len(o.scrapers))
	for _, s := range o.scrapers {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		items, err := s.Scrape(ctx)
		if err != nil {
			if o.logger != nil {
				o.logger.Printf("scraper %s failed: %v", s.Source(), err)
			}
			results = append(results, SourceResult{Source: s.Source(), Count: 0})
			continue
		}
		if err := s.Persist(ctx, items); err != nil {
			if o.logger != nil {
				o.logger.Printf("scraper %s persist failed: %v", s.Source(), err)
			}
			results = append(results, SourceResult{Source: s.Source(), Count: 0})
			continue
		}

		if o.logger != nil {
			o.logger.Printf("scraper %s produced %d listings", s.Source(), len(items))
		}
		results = append(results, SourceResult{Source: s.Source(), Count: len(items)})
	}

	return results, nil
}
