package core

import (
	"context"
	"sync"
)

type fakeGeo struct {
	info  *GeoInfo
	err   error
	calls int
}

func (f *fakeGeo) Resolve(ctx context.Context, ip string) (*GeoInfo, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}

type fakeRemediator struct {
	verdicts []Verdict
	err      error
}

func (f *fakeRemediator) Remediate(ctx context.Context, token string, verdict Verdict) error {
	f.verdicts = append(f.verdicts, verdict)
	return f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

type fakeStore struct {
	history IPHistory
	loadErr error
	saveErr error
	saved   []IPHistory
}

func (f *fakeStore) Load(ctx context.Context) (IPHistory, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.history == nil {
		f.history = IPHistory{}
	}
	return f.history, nil
}

func (f *fakeStore) Save(ctx context.Context, history IPHistory) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	snapshot := IPHistory{}
	for address, ips := range history {
		snapshot[address] = append([]string(nil), ips...)
	}
	f.saved = append(f.saved, snapshot)
	return nil
}

type fakeReporter struct {
	errors []error
}

func (f *fakeReporter) ReportError(ctx context.Context, err error) {
	f.errors = append(f.errors, err)
}

type fakeAdmin struct {
	mu    sync.Mutex
	calls []string

	authHook func()

	token       string
	authErr     error
	snapshot    *QueueSnapshot
	fetchErr    error
	accountID   string
	resolveErr  error
	secret      string
	resetErr    error
	lockOutcome string
	lockErr     error
	noteOutcome string
	noteErr     error
	status      string
	statusErr   error
}

func (f *fakeAdmin) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAdmin) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call == name {
			count++
		}
	}
	return count
}

func (f *fakeAdmin) Authenticate(ctx context.Context) (string, error) {
	f.record("authenticate")
	if f.authHook != nil {
		f.authHook()
	}
	if f.authErr != nil {
		return "", f.authErr
	}
	if f.token == "" {
		return "token", nil
	}
	return f.token, nil
}

func (f *fakeAdmin) FetchQueueSnapshot(ctx context.Context, token, serverName string) (*QueueSnapshot, error) {
	f.record("fetch")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.snapshot, nil
}

func (f *fakeAdmin) ResolveAccountID(ctx context.Context, token, address string) (string, error) {
	f.record("resolve")
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.accountID, nil
}

func (f *fakeAdmin) ResetCredential(ctx context.Context, token, accountID string) (string, error) {
	f.record("reset")
	if f.resetErr != nil {
		return "", f.resetErr
	}
	return f.secret, nil
}

func (f *fakeAdmin) LockAccount(ctx context.Context, token, accountID string) (string, error) {
	f.record("lock")
	if f.lockErr != nil {
		return "", f.lockErr
	}
	return f.lockOutcome, nil
}

func (f *fakeAdmin) AppendAccountNote(ctx context.Context, token, accountID, note string) (string, error) {
	f.record("note")
	if f.noteErr != nil {
		return "", f.noteErr
	}
	return f.noteOutcome, nil
}

func (f *fakeAdmin) GetAccountStatus(ctx context.Context, token, accountID string) (string, error) {
	f.record("status")
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}
