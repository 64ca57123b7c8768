package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/zimbra-queue-guard/internal/metrics"
)

// Remediator executes the remediation sequence for a flagged sender:
// credential reset, account lock and audit note, each best-effort, followed
// by exactly one consolidated operator report.
type Remediator struct {
	admin       AdminClient
	notifier    Notifier
	logger      *zap.Logger
	homeCountry string
	now         func() time.Time
}

// NewRemediator creates a new remediator.
func NewRemediator(admin AdminClient, notifier Notifier, logger *zap.Logger, homeCountry string) *Remediator {
	return &Remediator{
		admin:       admin,
		notifier:    notifier,
		logger:      logger,
		homeCountry: homeCountry,
		now:         time.Now,
	}
}

// Remediate resolves the account and runs the remediation steps. A missing
// account is a normal outcome: one notice is sent and no steps run. Any other
// resolution failure is cycle-fatal and propagates to the caller. Step
// failures after resolution are folded into the report instead.
func (r *Remediator) Remediate(ctx context.Context, token string, verdict Verdict) error {
	accountID, err := r.admin.ResolveAccountID(ctx, token, verdict.Address)
	if errors.Is(err, ErrAccountNotFound) {
		r.logger.Info("No such account for sender", zap.String("address", verdict.Address))
		metrics.RemediationsTotal.WithLabelValues("no_account").Inc()
		r.send(ctx, fmt.Sprintf("No such account for address: %s", verdict.Address))
		return nil
	}
	if err != nil {
		return fmt.Errorf("resolve account id for %s: %w", verdict.Address, err)
	}

	result := RemediationResult{AccountID: accountID}
	result.NewSecret, result.ResetOutcome = r.resetCredential(ctx, token, accountID)
	result.LockOutcome = r.lockAccount(ctx, token, accountID)
	result.NoteOutcome = r.appendNote(ctx, token, accountID)

	metrics.RemediationsTotal.WithLabelValues("remediated").Inc()
	r.logger.Info("Remediated account",
		zap.String("address", verdict.Address),
		zap.String("account_id", accountID),
		zap.String("lock_outcome", result.LockOutcome),
		zap.String("note_outcome", result.NoteOutcome))

	r.send(ctx, r.compose(verdict, result))
	return nil
}

func (r *Remediator) resetCredential(ctx context.Context, token, accountID string) (secret, outcome string) {
	secret, err := r.admin.ResetCredential(ctx, token, accountID)
	if err != nil {
		r.logger.Error("Failed to reset credential",
			zap.String("account_id", accountID),
			zap.Error(err))
		return "", fmt.Sprintf("credential reset failed: %v", err)
	}
	if secret == "" {
		return "", "credential reset skipped"
	}
	return secret, "credential reset"
}

func (r *Remediator) lockAccount(ctx context.Context, token, accountID string) string {
	// An account locked by a previous run does not need another lock.
	if status, err := r.admin.GetAccountStatus(ctx, token, accountID); err == nil && status == "locked" {
		return "already locked"
	}

	outcome, err := r.admin.LockAccount(ctx, token, accountID)
	if err != nil {
		r.logger.Error("Failed to lock account",
			zap.String("account_id", accountID),
			zap.Error(err))
		return fmt.Sprintf("lock failed: %v", err)
	}
	return outcome
}

func (r *Remediator) appendNote(ctx context.Context, token, accountID string) string {
	note := fmt.Sprintf("Account locked on %s (spam)", r.now().Format("02/01/2006"))
	outcome, err := r.admin.AppendAccountNote(ctx, token, accountID, note)
	if err != nil {
		r.logger.Error("Failed to append account note",
			zap.String("account_id", accountID),
			zap.Error(err))
		return fmt.Sprintf("note failed: %v", err)
	}
	return outcome
}

// compose builds the single consolidated report for one incident.
func (r *Remediator) compose(verdict Verdict, result RemediationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Address:* %s,\n*Count:* %d,\n*Origin IP:* %s", verdict.Address, verdict.Count, verdict.OriginIP)
	if verdict.Country != r.homeCountry {
		fmt.Fprintf(&b, " (foreign: %s)", verdict.Country)
	}
	if result.NewSecret != "" {
		fmt.Fprintf(&b, ",\n*New password:* %s", result.NewSecret)
	}
	fmt.Fprintf(&b, ",\n*Locked:* %s", result.LockOutcome)
	fmt.Fprintf(&b, ",\n*Note:* %s", result.NoteOutcome)
	return b.String()
}

func (r *Remediator) send(ctx context.Context, text string) {
	if err := r.notifier.Send(ctx, text); err != nil {
		r.logger.Error("Failed to deliver notification", zap.Error(err))
	}
}
