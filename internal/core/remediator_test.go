package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testVerdict = Verdict{
	Address:  "a@inst.edu",
	Count:    50,
	OriginIP: "203.0.113.9",
	Country:  "US",
}

func newTestRemediator(admin *fakeAdmin, notifier *fakeNotifier) *Remediator {
	r := NewRemediator(admin, notifier, zap.NewNop(), "BR")
	r.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestRemediateAccountNotFound(t *testing.T) {
	admin := &fakeAdmin{resolveErr: fmt.Errorf("get account info: %w", ErrAccountNotFound)}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	require.NoError(t, r.Remediate(context.Background(), "tok", testVerdict))

	messages := notifier.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, "No such account for address: a@inst.edu", messages[0])

	assert.Zero(t, admin.callCount("reset"))
	assert.Zero(t, admin.callCount("lock"))
	assert.Zero(t, admin.callCount("note"))
}

func TestRemediateFatalResolveError(t *testing.T) {
	admin := &fakeAdmin{resolveErr: errors.New("auth token expired")}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	err := r.Remediate(context.Background(), "tok", testVerdict)
	require.Error(t, err)
	assert.Empty(t, notifier.sent())
}

func TestRemediateComposesReport(t *testing.T) {
	admin := &fakeAdmin{
		accountID:   "abc-123",
		secret:      "s3cr3t!",
		status:      "active",
		lockOutcome: "account status set to locked",
		noteOutcome: "note added",
	}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	require.NoError(t, r.Remediate(context.Background(), "tok", testVerdict))

	messages := notifier.sent()
	require.Len(t, messages, 1)
	report := messages[0]
	assert.Contains(t, report, "*Address:* a@inst.edu")
	assert.Contains(t, report, "*Count:* 50")
	assert.Contains(t, report, "*Origin IP:* 203.0.113.9 (foreign: US)")
	assert.Contains(t, report, "*New password:* s3cr3t!")
	assert.Contains(t, report, "*Locked:* account status set to locked")
	assert.Contains(t, report, "*Note:* note added")
}

func TestRemediateDomesticOriginHasNoForeignAnnotation(t *testing.T) {
	admin := &fakeAdmin{accountID: "abc-123", secret: "x", lockOutcome: "ok", noteOutcome: "ok"}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	verdict := testVerdict
	verdict.Country = "BR"
	require.NoError(t, r.Remediate(context.Background(), "tok", verdict))

	messages := notifier.sent()
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0], "foreign")
}

func TestRemediateStepFailuresAreFolded(t *testing.T) {
	admin := &fakeAdmin{
		accountID: "abc-123",
		resetErr:  errors.New("backend 500"),
		lockErr:   errors.New("backend 502"),
		noteErr:   errors.New("backend 503"),
	}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	// Step failures never abort the sequence or the cycle.
	require.NoError(t, r.Remediate(context.Background(), "tok", testVerdict))

	assert.Equal(t, 1, admin.callCount("reset"))
	assert.Equal(t, 1, admin.callCount("lock"))
	assert.Equal(t, 1, admin.callCount("note"))

	messages := notifier.sent()
	require.Len(t, messages, 1)
	report := messages[0]
	assert.NotContains(t, report, "*New password:*")
	assert.Contains(t, report, "*Locked:* lock failed: backend 502")
	assert.Contains(t, report, "*Note:* note failed: backend 503")
}

func TestRemediateSkipsLockWhenAlreadyLocked(t *testing.T) {
	admin := &fakeAdmin{
		accountID:   "abc-123",
		secret:      "x",
		status:      "locked",
		noteOutcome: "note added",
	}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	require.NoError(t, r.Remediate(context.Background(), "tok", testVerdict))

	assert.Zero(t, admin.callCount("lock"))
	messages := notifier.sent()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "*Locked:* already locked")
}

func TestRemediateSkippedCredentialReset(t *testing.T) {
	// An empty secret from the client is a distinct disabled-step outcome.
	admin := &fakeAdmin{accountID: "abc-123", status: "active", lockOutcome: "ok", noteOutcome: "ok"}
	notifier := &fakeNotifier{}
	r := newTestRemediator(admin, notifier)

	require.NoError(t, r.Remediate(context.Background(), "tok", testVerdict))

	messages := notifier.sent()
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0], "*New password:*")
}
