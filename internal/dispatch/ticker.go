// internal/dispatch/ticker.go
package dispatch

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/susanpikesquare/keepswell-sub001/internal/model"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
	"github.com/susanpikesquare/keepswell-sub001/internal/schedule"
)

// DefaultInterval matches the due window the evaluator assumes.
const DefaultInterval = 5 * time.Minute

// Ticker drives the engine: every interval it evaluates all active
// journals and dispatches the due ones. Ticks never overlap — a tick
// that would start while the previous one is still running is skipped,
// since the duplicate-fire guard is a time-window heuristic and relies
// on firings being processed roughly in order.
type Ticker struct {
	Journals   repository.JournalRepositoryInterface
	Evaluator  *schedule.Evaluator
	Dispatcher *Dispatcher
	Interval   time.Duration
	Workers    int

	inFlight atomic.Bool
}

// Start blocks until the context is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("🚀 ticker running every", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("ticker stopped:", ctx.Err())
			return
		case now := <-ticker.C:
			t.Tick(now)
		}
	}
}

// Tick runs one evaluation pass. Safe to call directly in tests.
func (t *Ticker) Tick(now time.Time) {
	if !t.inFlight.CompareAndSwap(false, true) {
		log.Println("⚠️ previous tick still running, skipping this one")
		return
	}
	defer t.inFlight.Store(false)

	journals, err := t.Journals.ListActive()
	if err != nil {
		// Transient store outage: log and let the next tick proceed.
		log.Println("⚠️ failed to list active journals:", err)
		return
	}

	workers := t.Workers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, journal := range journals {
		wg.Add(1)
		sem <- struct{}{}
		go func(j *model.Journal) {
			defer wg.Done()
			defer func() { <-sem }()
			t.evaluate(j, now)
		}(journal)
	}
	wg.Wait()
}

func (t *Ticker) evaluate(j *model.Journal, now time.Time) {
	due, err := t.Evaluator.IsDue(j, now)
	if err != nil {
		log.Println("⚠️ schedule evaluation failed for journal", j.ID, ":", err)
		return
	}
	if !due {
		return
	}

	if _, err := t.Dispatcher.Dispatch(j); err != nil {
		// Selection or store failures abort this journal's firing only.
		log.Println("⚠️ dispatch failed for journal", j.ID, ":", err)
	}
}
