// Package expiry sweeps past-due entitlements to status "expired" in the
// background. Reads stay correct without it (the active predicate is
// evaluated at query time); the sweep only keeps reporting and listings
// honest, so it runs as a queued job rather than inline.
package expiry

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/learnkit/storage/postgres"
)

// SweepArgs is the river job payload; the sweep takes no parameters.
type SweepArgs struct{}

// Kind implements river.JobArgs.
func (SweepArgs) Kind() string { return "entitlement_expiry_sweep" }

// SweepWorker flips active entitlements whose expiry has passed.
type SweepWorker struct {
	river.WorkerDefaults[SweepArgs]

	db     *postgres.DB
	schema string
	log    *logrus.Logger
}

// NewSweepWorker constructs the worker. An empty schema defaults to
// "entitlements".
func NewSweepWorker(db *postgres.DB, schema string, log *logrus.Logger) *SweepWorker {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "entitlements"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SweepWorker{db: db, schema: s, log: log}
}

// Work implements river.Worker.
func (w *SweepWorker) Work(ctx context.Context, job *river.Job[SweepArgs]) error {
	tag, err := w.db.Pool.Exec(ctx,
		`UPDATE `+w.schema+`.entitlements SET status='expired'
		 WHERE status='active' AND expires_at IS NOT NULL AND expires_at <= NOW()`,
	)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		w.log.WithField("expired", n).Info("entitlement expiry sweep")
	}
	return nil
}

// Scheduler enqueues the sweep job on a cron schedule.
type Scheduler struct {
	c      *cron.Cron
	client *river.Client[pgx.Tx]
	log    *logrus.Logger
}

// NewScheduler wires a cron entry that inserts SweepArgs on each tick.
// spec is a standard cron expression; an empty spec runs hourly.
func NewScheduler(client *river.Client[pgx.Tx], spec string, log *logrus.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = "@hourly"
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Scheduler{c: cron.New(), client: client, log: log}
	if _, err := s.c.AddFunc(spec, s.enqueue); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) enqueue() {
	if _, err := s.client.Insert(context.Background(), SweepArgs{}, nil); err != nil {
		s.log.WithError(err).Warn("failed to enqueue expiry sweep")
	}
}

// Start begins scheduling; Stop waits for a running enqueue to finish.
func (s *Scheduler) Start() { s.c.Start() }
func (s *Scheduler) Stop()  { <-s.c.Stop().Done() }
