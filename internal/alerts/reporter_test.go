package alerts

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func connectionError() error {
	return fmt.Errorf("admin request: %w", &net.OpError{
		Op:   "dial",
		Net:  "tcp",
		Addr: &net.TCPAddr{IP: net.ParseIP("198.51.100.7"), Port: 7071},
		Err:  os.NewSyscallError("connect", syscall.ECONNREFUSED),
	})
}

func newTestReporter(notifier *fakeNotifier) (*Reporter, *time.Time) {
	r := NewReporter(notifier, zap.NewNop(), 10*time.Minute)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestReportSuppressesRepeatWithinWindow(t *testing.T) {
	notifier := &fakeNotifier{}
	r, _ := newTestReporter(notifier)

	r.ReportError(context.Background(), connectionError())
	r.ReportError(context.Background(), connectionError())

	assert.Len(t, notifier.messages, 1)
}

func TestReportResendsAfterWindow(t *testing.T) {
	notifier := &fakeNotifier{}
	r, now := newTestReporter(notifier)

	r.ReportError(context.Background(), connectionError())
	*now = now.Add(11 * time.Minute)
	r.ReportError(context.Background(), connectionError())

	assert.Len(t, notifier.messages, 2)
}

func TestReportSuppressesUninformativeError(t *testing.T) {
	notifier := &fakeNotifier{}
	r, _ := newTestReporter(notifier)

	r.ReportError(context.Background(), errors.New("something went wrong"))

	assert.Empty(t, notifier.messages)
}

func TestReportDistinctCausesBothDelivered(t *testing.T) {
	notifier := &fakeNotifier{}
	r, _ := newTestReporter(notifier)

	r.ReportError(context.Background(), connectionError())
	r.ReportError(context.Background(), fmt.Errorf("admin request: %w", &net.OpError{
		Op:   "dial",
		Net:  "tcp",
		Addr: &net.TCPAddr{IP: net.ParseIP("198.51.100.7"), Port: 7071},
		Err:  os.NewSyscallError("connect", syscall.ETIMEDOUT),
	}))

	assert.Len(t, notifier.messages, 2)
}

func TestReportFormatsDiagnosticFields(t *testing.T) {
	notifier := &fakeNotifier{}
	r, _ := newTestReporter(notifier)

	r.ReportError(context.Background(), connectionError())

	require.Len(t, notifier.messages, 1)
	report := notifier.messages[0]
	assert.Contains(t, report, "Syscall: connect")
	assert.Contains(t, report, "Address: 198.51.100.7")
	assert.Contains(t, report, "Port: 7071")
}
