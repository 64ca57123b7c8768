package alerts

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
)

// Diagnostic is the structured summary of a cycle-fatal error, built from
// whatever transport-level detail the error chain carries.
type Diagnostic struct {
	Message string
	Code    string
	Syscall string
	Address string
	Port    string
}

// Diagnose extracts the diagnostic fields from an error chain.
func Diagnose(err error) Diagnostic {
	d := Diagnostic{Message: RootCause(err)}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Addr != nil {
		addr := opErr.Addr.String()
		if host, port, splitErr := net.SplitHostPort(addr); splitErr == nil {
			d.Address = host
			d.Port = port
		} else {
			d.Address = addr
		}
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		d.Syscall = sysErr.Syscall
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		d.Code = fmt.Sprintf("%d", int(errno))
	}

	return d
}

// Informative reports whether the diagnostic carries any concrete field
// beyond the bare message.
func (d Diagnostic) Informative() bool {
	return d.Code != "" || d.Syscall != "" || d.Address != ""
}

// Format renders the diagnostic as the operator-facing report.
func (d Diagnostic) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s", d.Message)
	if d.Code != "" {
		fmt.Fprintf(&b, "\nCode: %s", d.Code)
	}
	if d.Syscall != "" {
		fmt.Fprintf(&b, "\nSyscall: %s", d.Syscall)
	}
	if d.Address != "" {
		fmt.Fprintf(&b, "\nAddress: %s", d.Address)
	}
	if d.Port != "" {
		fmt.Fprintf(&b, "\nPort: %s", d.Port)
	}
	return b.String()
}

// RootCause returns the message of the innermost error in the chain. Two
// failures with the same underlying cause collapse to the same key even when
// their surrounding context differs.
func RootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
