// Package cronrunner schedules periodic background jobs for the engine,
// such as refreshing the open-predictions gauge as unlock times pass.
package cronrunner

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Runner wraps a cron scheduler with a shared base context for jobs.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

// New creates a runner. Jobs receive baseCtx so they stop cleanly when the
// process shuts down.
func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(),
		baseCtx: baseCtx,
	}
}

// Add schedules job under the given cron spec.
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

// Start begins executing scheduled jobs.
func (r *Runner) Start() {
	slog.Info("cron started")
	r.cron.Start()
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	slog.Info("cron stopped")
}
