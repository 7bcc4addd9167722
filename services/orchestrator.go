package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keyword-bid-analyzer/analysis"
	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/models"
	"keyword-bid-analyzer/ratelimit"
	"keyword-bid-analyzer/retry"
	"keyword-bid-analyzer/scraper"
	"keyword-bid-analyzer/searchad"
)

// ErrNoKeywords rejects an empty batch before any stream starts.
var ErrNoKeywords = errors.New("services: no keywords to analyze")

// Hooks are the run's outward-facing callbacks. OnProgress receives a
// monotonic non-decreasing percentage sequence; OnResult fires exactly once
// per combined keyword record, before the run finishes.
type Hooks struct {
	OnProgress func(models.Progress)
	OnResult   func(*models.KeywordRecord)
}

// SessionFactory opens the long-lived navigation session for one device.
// Each session is owned by exactly one worker for the run's duration.
type SessionFactory func(dev models.Device) (scraper.Session, error)

// Orchestrator wires the three collection streams together.
type Orchestrator struct {
	cfg        config.Config
	client     searchad.StatsClient
	newSession SessionFactory
	log        *zap.SugaredLogger
}

// NewOrchestrator builds an orchestrator from its collaborators.
func NewOrchestrator(cfg config.Config, client searchad.StatsClient, newSession SessionFactory, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{cfg: cfg, client: client, newSession: newSession, log: log}
}

// Run is one analysis run. Cancel may be called from any goroutine; the
// flag is polled at keyword-loop boundaries in all three streams, so work
// already in flight finishes and lands in the partial result.
type Run struct {
	id        string
	o         *Orchestrator
	keywords  []string
	hooks     Hooks
	cancelled atomic.Bool
}

// NewRun validates configuration synchronously — a misconfigured collector
// fails the whole run here, before any stream starts.
func (o *Orchestrator) NewRun(keywords []string, hooks Hooks) (*Run, error) {
	if o.client == nil || o.newSession == nil {
		return nil, searchad.ErrNotConfigured
	}
	if c, ok := o.client.(interface{ Configured() bool }); ok && !c.Configured() {
		return nil, searchad.ErrNotConfigured
	}
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}
	return &Run{id: uuid.NewString(), o: o, keywords: keywords, hooks: hooks}, nil
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Cancel requests cooperative cancellation. No new per-keyword work starts
// after it returns; the run still completes with partial results.
func (r *Run) Cancel() { r.cancelled.Store(true) }

// Execute drives the run to completion: session init, the three concurrent
// streams, then combination and ranking of whatever arrived.
func (r *Run) Execute(ctx context.Context) (map[string]*models.KeywordRecord, models.RunTally, error) {
	o := r.o
	start := time.Now()
	sink := &progressSink{emit: r.hooks.OnProgress}

	sink.report(StageInit, 0, "", "opening sessions")
	pcSession, err := o.newSession(models.DevicePC)
	if err != nil {
		return nil, models.RunTally{RunID: r.id}, fmt.Errorf("open pc session: %w", err)
	}
	defer pcSession.Close()

	mobileSession, err := o.newSession(models.DeviceMobile)
	if err != nil {
		return nil, models.RunTally{RunID: r.id}, fmt.Errorf("open mobile session: %w", err)
	}
	defer mobileSession.Close()
	sink.report(StageInit, 1, "", "sessions ready")

	limiter := ratelimit.New(o.cfg.InitialRequestDelay, o.cfg.MinRequestDelay, o.cfg.MaxRequestDelay)
	collector := &statsCollector{
		client:  o.client,
		limiter: limiter,
		policy: retry.Policy{
			MaxAttempts: o.cfg.MaxRetries,
			BaseDelay:   o.cfg.RetryBaseDelay,
			MaxDelay:    o.cfg.RetryMaxDelay,
			Factor:      o.cfg.RetryFactor,
		},
		workers:  o.cfg.StatsWorkers,
		bidDepth: o.cfg.BidDepth,
		log:      o.log,
	}
	pcWorker := scraper.NewWorker(models.DevicePC, pcSession, o.cfg, o.log)
	mobileWorker := scraper.NewWorker(models.DeviceMobile, mobileSession, o.cfg, o.log)

	o.log.Infof("run %s ▶ %d keywords across 3 streams", r.id, len(r.keywords))

	var (
		wg            sync.WaitGroup
		data          map[string]analysis.KeywordData
		failed        int
		pcSignals     map[string]models.AdSignals
		mobileSignals map[string]models.AdSignals
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		data, failed = collector.Collect(ctx, r.keywords, &r.cancelled, func(f float64, kw string) {
			sink.report(StageAPI, f, kw, "keyword statistics")
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		pcSignals = pcWorker.Run(ctx, r.keywords, &r.cancelled, func(f float64, kw string) {
			sink.report(StagePC, f, kw, "desktop results")
		})
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		mobileSignals = mobileWorker.Run(ctx, r.keywords, &r.cancelled, func(f float64, kw string) {
			sink.report(StageMobile, f, kw, "mobile results")
		})
	}()

	// Fan-in barrier: combination only starts once every stream has joined.
	wg.Wait()

	sink.report(StageCombine, 0, "", "combining results")
	records := analysis.Combine(data, pcSignals, mobileSignals, r.hooks.OnResult)
	analysis.Rank(records)
	sink.report(StageCombine, 1, "", "done")

	tally := models.RunTally{
		RunID:     r.id,
		Requested: len(r.keywords),
		Succeeded: len(records),
		Failed:    len(r.keywords) - len(records),
		Cancelled: r.cancelled.Load(),
		Elapsed:   time.Since(start),
	}
	o.log.Infof("run %s ✓ %d/%d keywords combined (%d failed, cancelled=%v, %s, api dropped=%d)",
		r.id, tally.Succeeded, tally.Requested, tally.Failed, tally.Cancelled,
		tally.Elapsed.Round(time.Millisecond), failed)

	return records, tally, nil
}
