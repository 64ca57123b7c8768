package core

import (
	"context"
	"errors"
)

// Error kinds decided once at the admin-client boundary. Callers match with
// errors.Is instead of inspecting response text.
var (
	// ErrAccountNotFound is returned when the backend reports that the
	// requested account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAlreadyInProgress is returned when the backend reports a concurrent
	// operation already running. It is a benign condition, not a failure.
	ErrAlreadyInProgress = errors.New("operation already in progress")

	// ErrAuthFailed is returned when admin credentials are rejected.
	ErrAuthFailed = errors.New("authentication failed")
)

// AdminClient defines the capability interface over the mail server's
// admin API.
type AdminClient interface {
	// Authenticate obtains an admin auth token.
	Authenticate(ctx context.Context) (string, error)

	// FetchQueueSnapshot reads the deferred queue of the named server.
	FetchQueueSnapshot(ctx context.Context, token, serverName string) (*QueueSnapshot, error)

	// ResolveAccountID maps an address to its account id. Returns
	// ErrAccountNotFound when the account does not exist.
	ResolveAccountID(ctx context.Context, token, address string) (string, error)

	// ResetCredential sets a fresh random password on the account and
	// returns it. An empty account id yields an empty secret and no call.
	ResetCredential(ctx context.Context, token, accountID string) (string, error)

	// LockAccount sets the account status to locked and returns an
	// outcome description.
	LockAccount(ctx context.Context, token, accountID string) (string, error)

	// AppendAccountNote appends note to the account's audit notes,
	// preserving existing content, and returns an outcome description.
	AppendAccountNote(ctx context.Context, token, accountID, note string) (string, error)

	// GetAccountStatus returns the account's current status attribute.
	GetAccountStatus(ctx context.Context, token, accountID string) (string, error)
}

// GeoResolver maps an IP address to its country and reverse hostname.
type GeoResolver interface {
	// Resolve returns geolocation data for ip, or an error once the
	// resolver's own retry policy is exhausted.
	Resolve(ctx context.Context, ip string) (*GeoInfo, error)
}

// Notifier delivers a text alert to the operator channel. Delivery is
// best-effort; failures are logged by callers and never escalate.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// StateStore persists the historical sender-to-IP mapping between cycles.
type StateStore interface {
	// Load returns the stored history, creating an empty one on first use.
	Load(ctx context.Context) (IPHistory, error)

	// Save persists the history. Entries are only ever added.
	Save(ctx context.Context, history IPHistory) error
}

// AccountRemediator executes the remediation sequence for one flagged sender.
type AccountRemediator interface {
	Remediate(ctx context.Context, token string, verdict Verdict) error
}

// ErrorReporter delivers a cycle-fatal failure to the operator channel,
// subject to deduplication.
type ErrorReporter interface {
	ReportError(ctx context.Context, err error)
}
