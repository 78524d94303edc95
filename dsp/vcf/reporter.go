package vcf

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultReportInterval is the polling period of a Reporter.
const DefaultReportInterval = time.Second

// Reporter polls Diagnostics on a non-real-time goroutine and logs at most
// one warning per interval when new solver or sanitation events appeared.
// Poll may be called concurrently with Run.
type Reporter struct {
	diag     *Diagnostics
	logger   *slog.Logger
	interval time.Duration

	mu   sync.Mutex
	last DiagnosticsSnapshot
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithLogger sets the destination logger. The default is slog.Default().
func WithLogger(l *slog.Logger) ReporterOption {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithInterval sets the polling period. Non-positive values are ignored.
func WithInterval(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		if d > 0 {
			r.interval = d
		}
	}
}

// NewReporter returns a reporter for d. Events counted before this call
// are not reported.
func NewReporter(d *Diagnostics, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		diag:     d,
		logger:   slog.Default(),
		interval: DefaultReportInterval,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.last = d.Snapshot()

	return r
}

// Run polls every interval until ctx is done, then once more, and returns
// ctx.Err().
func (r *Reporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Poll()
			return ctx.Err()
		case <-ticker.C:
			r.Poll()
		}
	}
}

// Poll compares the counters with the previous poll and logs one warning
// if anything noteworthy happened. It reports whether it logged.
func (r *Reporter) Poll() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.diag.Snapshot()
	prev := r.last
	r.last = cur

	nonConverged := cur.NonConverged - prev.NonConverged
	sanitized := cur.Sanitized - prev.Sanitized
	unprepared := cur.Unprepared - prev.Unprepared
	dropped := cur.DroppedChannels - prev.DroppedChannels

	if nonConverged == 0 && sanitized == 0 && unprepared == 0 && dropped == 0 {
		return false
	}

	r.logger.Warn("vcf: degraded processing",
		slog.Uint64("non_converged", nonConverged),
		slog.Uint64("solves", cur.Solves-prev.Solves),
		slog.Uint64("max_iterations", cur.MaxIterations),
		slog.Uint64("sanitized", sanitized),
		slog.Uint64("unprepared_calls", unprepared),
		slog.Uint64("dropped_channels", dropped),
	)

	return true
}
