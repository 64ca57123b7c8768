package core

// SenderTotal is one aggregate entry of the deferred queue: a sender address
// and how many queued messages it currently accounts for.
type SenderTotal struct {
	Address string
	Count   int
}

// Connection is one per-connection record of the deferred queue, attributing
// a sender address to the network address its messages were received from.
type Connection struct {
	Address  string
	OriginIP string
}

// QueueSnapshot is one point-in-time read of the server's deferred queue.
// The section-presence flags are kept separately from the slices because an
// empty section and a missing section mean different things to the caller.
type QueueSnapshot struct {
	Senders     []SenderTotal
	Connections []Connection

	HasSummaries    bool // any summary section was present
	HasItems        bool // any queue item section was present
	FromSummary     bool // the "from" aggregate section was present
	ReceivedSummary bool // the "received" section was present
}

// GeoInfo is the result of resolving an origin IP.
type GeoInfo struct {
	Country  string
	Hostname string
}

// Verdict is the per-sender classification output for one cycle.
type Verdict struct {
	Address  string
	Count    int
	OriginIP string
	Country  string

	Foreign          bool
	KnownService     bool
	NewIP            bool
	ExceedsThreshold bool
	MonitoredDomain  bool
}

// ShouldRemediate reports whether every classification predicate holds.
func (v Verdict) ShouldRemediate() bool {
	return v.Foreign &&
		v.ExceedsThreshold &&
		!v.KnownService &&
		v.NewIP &&
		v.MonitoredDomain
}

// RemediationResult collects the outcome of one remediation attempt.
type RemediationResult struct {
	AccountID    string
	NewSecret    string
	ResetOutcome string
	LockOutcome  string
	NoteOutcome  string
}

// IPHistory is the durable mapping from sender address to every origin IP
// observed for it across cycles. Entries only ever grow.
type IPHistory map[string][]string

// Has reports whether ip was already observed for address.
func (h IPHistory) Has(address, ip string) bool {
	for _, known := range h[address] {
		if known == ip {
			return true
		}
	}
	return false
}

// Add records ip for address if it is not already present.
func (h IPHistory) Add(address, ip string) {
	if h.Has(address, ip) {
		return
	}
	h[address] = append(h[address], ip)
}
