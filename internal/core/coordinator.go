package core

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/metrics"
)

// Coordinator drives one queue-processing cycle at a time: load history,
// authenticate, fetch the queue, classify, remediate, persist history. All
// failures are translated here into a no-op, a log entry or an operator
// alert.
type Coordinator struct {
	admin      AdminClient
	classifier *Classifier
	store      StateStore
	notifier   Notifier
	reporter   ErrorReporter
	logger     *zap.Logger
	serverName string
	running    atomic.Bool
}

// NewCoordinator creates a new cycle coordinator.
func NewCoordinator(
	admin AdminClient,
	classifier *Classifier,
	store StateStore,
	notifier Notifier,
	reporter ErrorReporter,
	logger *zap.Logger,
	serverName string,
) *Coordinator {
	return &Coordinator{
		admin:      admin,
		classifier: classifier,
		store:      store,
		notifier:   notifier,
		reporter:   reporter,
		logger:     logger,
		serverName: serverName,
	}
}

// RunCycle executes one poll cycle. When a cycle is already running the call
// is dropped without side effects; overlapping poll ticks are expected under
// load.
func (c *Coordinator) RunCycle(ctx context.Context) {
	if !c.running.CompareAndSwap(false, true) {
		c.logger.Debug("Cycle already running, skipping invocation")
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer c.running.Store(false)

	metrics.CyclesTotal.WithLabelValues(c.runCycle(ctx)).Inc()
}

// runCycle returns the cycle result label: ok, benign, missing_data or error.
func (c *Coordinator) runCycle(ctx context.Context) string {
	history, err := c.store.Load(ctx)
	if err != nil {
		c.fail(ctx, err)
		return "error"
	}
	// History is persisted on every exit path past this point so that
	// partial progress survives a failed classification pass.
	defer func() {
		if err := c.store.Save(ctx, history); err != nil {
			c.logger.Error("Failed to persist address IP history", zap.Error(err))
		}
	}()

	token, err := c.admin.Authenticate(ctx)
	if err != nil {
		c.fail(ctx, err)
		return "error"
	}

	snapshot, err := c.admin.FetchQueueSnapshot(ctx, token, c.serverName)
	if errors.Is(err, ErrAlreadyInProgress) {
		c.logger.Info("Queue scan already in progress on server, waiting for next cycle")
		return "benign"
	}
	if err != nil {
		c.fail(ctx, err)
		return "error"
	}

	if snapshot == nil || !snapshot.HasSummaries || !snapshot.HasItems {
		c.alert(ctx, "No queue data found.")
		return "missing_data"
	}
	if !snapshot.FromSummary || !snapshot.ReceivedSummary {
		c.alert(ctx, `No "from" or "received" type entries found.`)
		return "missing_data"
	}

	if err := c.classifier.ProcessSnapshot(ctx, token, snapshot, history); err != nil {
		if errors.Is(err, ErrAlreadyInProgress) {
			c.logger.Info("Operation already in progress, waiting for next cycle")
			return "benign"
		}
		c.fail(ctx, err)
		return "error"
	}

	return "ok"
}

// alert delivers a descriptive message directly, outside the dedup path.
func (c *Coordinator) alert(ctx context.Context, text string) {
	c.logger.Warn("Cycle ended early", zap.String("reason", text))
	if err := c.notifier.Send(ctx, text); err != nil {
		c.logger.Error("Failed to deliver notification", zap.Error(err))
	}
}

// fail routes a cycle-fatal error through the deduplicating reporter.
func (c *Coordinator) fail(ctx context.Context, err error) {
	c.logger.Error("Cycle failed", zap.Error(err))
	c.reporter.ReportError(ctx, err)
}
