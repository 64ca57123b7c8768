package alerts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/core"
	"github.com/mikey/zimbra-queue-guard/internal/metrics"
)

// Reporter delivers cycle-fatal error alerts while suppressing repeats of
// the same underlying cause within a rolling window. Entries are purged
// lazily on each lookup; lookups happen only on error paths.
type Reporter struct {
	notifier core.Notifier
	logger   *zap.Logger
	window   time.Duration
	now      func() time.Time

	mu     sync.Mutex
	recent map[string]time.Time
}

// NewReporter creates a reporter with the given suppression window.
func NewReporter(notifier core.Notifier, logger *zap.Logger, window time.Duration) *Reporter {
	return &Reporter{
		notifier: notifier,
		logger:   logger,
		window:   window,
		now:      time.Now,
		recent:   make(map[string]time.Time),
	}
}

// ReportError formats err into a diagnostic report and sends it unless an
// alert for the same cause was sent within the window, or the report carries
// no concrete diagnostic detail.
func (r *Reporter) ReportError(ctx context.Context, err error) {
	diag := Diagnose(err)
	key := RootCause(err)

	if !r.shouldSend(key, diag) {
		r.logger.Info("Suppressing repeated or uninformative error alert",
			zap.String("cause", key))
		metrics.AlertsTotal.WithLabelValues("suppressed").Inc()
		return
	}

	if sendErr := r.notifier.Send(ctx, diag.Format()); sendErr != nil {
		r.logger.Error("Failed to deliver error alert", zap.Error(sendErr))
		metrics.AlertsTotal.WithLabelValues("failed").Inc()
		return
	}
	metrics.AlertsTotal.WithLabelValues("sent").Inc()
}

func (r *Reporter) shouldSend(key string, diag Diagnostic) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)
	for message, sentAt := range r.recent {
		if sentAt.Before(cutoff) {
			delete(r.recent, message)
		}
	}

	if _, seen := r.recent[key]; seen {
		return false
	}
	if !diag.Informative() {
		return false
	}

	r.recent[key] = now
	return true
}
