package history

import (
	"context"
	"time"

	"proposal-autofill/internal/logging"
	"proposal-autofill/internal/orchestrator"
)

// Recorder stores completed runs and logs a structured completion line
type Recorder struct {
	store  Store
	logger logging.Logger
}

// NewRecorder wraps a store
func NewRecorder(store Store) *Recorder {
	return &Recorder{
		store:  store,
		logger: logging.GetGlobalLogger().WithField("component", "run_history"),
	}
}

// Store exposes the underlying store
func (r *Recorder) Store() Store {
	return r.store
}

// Record saves the report as a run of tabID
func (r *Recorder) Record(ctx context.Context, tabID string, report orchestrator.Report) *Run {
	run := NewRun(tabID, report)
	if err := r.store.Store(ctx, run); err != nil {
		r.logger.WithError(err).Error("Failed to store run", map[string]interface{}{"tab_id": tabID})
		return run
	}

	fields := map[string]interface{}{
		"run_id":      run.RunID,
		"tab_id":      tabID,
		"status":      string(run.Status),
		"trigger":     string(report.Trigger),
		"outcome":     string(report.Outcome),
		"duration_ms": report.Duration.Milliseconds(),
	}
	if report.Total > 0 {
		fields["answered"] = report.Answered
		fields["questions"] = report.Total
	}
	switch run.Status {
	case StatusFailure:
		fields["reason"] = report.Reason
		r.logger.Warn("Run failed", fields)
	case StatusSuccess:
		r.logger.Info("Run completed", fields)
	default:
		r.logger.Debug("Run skipped", fields)
	}
	return run
}

// Forget drops a closed tab's runs
func (r *Recorder) Forget(ctx context.Context, tabID string) {
	if err := r.store.DeleteTab(ctx, tabID); err != nil {
		r.logger.WithError(err).Warn("Failed to drop tab runs", map[string]interface{}{"tab_id": tabID})
	}
}

// RunCleanup drops runs older than maxAge every interval until ctx ends
func (r *Recorder) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.store.Cleanup(ctx, maxAge); err != nil {
				r.logger.Error("Failed to cleanup old runs", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}
	}
}
