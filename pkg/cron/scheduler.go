// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	importservice "github.com/FACorreiaa/grocery-invoices/internal/domain/import/service"
)

// Syncer imports new invoice PDFs from a directory.
type Syncer interface {
	SyncDirectory(ctx context.Context, dir string) (*importservice.SyncStats, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	syncer   Syncer
	dir      string
	schedule string
	timeout  time.Duration
	logger   *slog.Logger

	// ctx is the parent of every sync and is cancelled by Stop.
	ctx    context.Context
	cancel context.CancelFunc

	// running guards against overlapping runs started by RunNow.
	running sync.Mutex

	// mu guards stopped so that RunNow never adds to wg after Stop waits on it.
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that syncs dir on the given cron spec.
func NewScheduler(syncer Syncer, dir, schedule string, timeout time.Duration, logger *slog.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		cron:     c,
		syncer:   syncer,
		dir:      dir,
		schedule: schedule,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() { s.syncInvoices(s.ctx) })
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
		slog.String("dir", s.dir),
		slog.Time("next", s.Next()),
	)
	return nil
}

// Stop cancels running syncs and stops the schedule. The returned context
// is done once cron jobs and syncs started by RunNow have returned.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")

	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	cronDone := s.cron.Stop()

	done, finish := context.WithCancel(context.Background())
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		finish()
	}()
	return done
}

// RunNow triggers a sync outside the schedule. It does nothing after Stop.
func (s *Scheduler) RunNow() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.syncInvoices(s.ctx)
	}()
}

// Run syncs immediately and returns when the sync is done. It is a no-op
// while another sync is running. The sync is cancelled when ctx is done or
// the scheduler stops.
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	s.syncInvoices(ctx)
}

// Next reports when the scheduled sync runs next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// syncInvoices imports the import directory once.
func (s *Scheduler) syncInvoices(parent context.Context) {
	if !s.running.TryLock() {
		s.logger.Info("invoice sync already running, skipping")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.logger.Info("starting scheduled invoice sync", slog.String("dir", s.dir))

	stats, err := s.syncer.SyncDirectory(ctx, s.dir)
	if err != nil {
		s.logger.Error("scheduled invoice sync failed",
			slog.String("dir", s.dir),
			slog.Any("error", err),
		)
		return
	}

	s.logger.Info("scheduled invoice sync completed",
		slog.Int("scanned", stats.Scanned),
		slog.Int("imported", stats.Imported),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
		slog.Time("next", s.Next()),
	)
}
