// Package errkind defines the error vocabulary shared by every
// component, per the error handling design: DeviceError, VendorTransient,
// VendorFatal, ConfigError, PersistenceError, and the Termination
// control-flow signal.
package errkind

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the Orchestrator's top-level recovery
// switch, so dispatch never depends on string matching.
type Kind int

const (
	Unknown Kind = iota
	DeviceError
	VendorTransient
	VendorFatal
	ConfigError
	PersistenceError
	Termination
)

func (k Kind) String() string {
	switch k {
	case DeviceError:
		return "device_error"
	case VendorTransient:
		return "vendor_transient"
	case VendorFatal:
		return "vendor_fatal"
	case ConfigError:
		return "config_error"
	case PersistenceError:
		return "persistence_error"
	case Termination:
		return "termination"
	default:
		return "unknown"
	}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }

// WithKind tags err with kind, preserving the wrapped error chain.
func WithKind(err error, kind Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: err}
}

// KindOf returns the Kind attached to err, or Unknown if none was tagged
// anywhere along the chain.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Unknown
}

// New is a convenience for WithKind(fmt.Errorf(format, args...), kind).
func New(kind Kind, format string, args ...interface{}) error {
	return WithKind(fmt.Errorf(format, args...), kind)
}

// ErrTermination is the sentinel cooperative-cancellation error. It is not
// an operational failure; it unwinds a blocking STT call from inside a
// transcript callback (the one place the vendor API forces a
// callback-only interface) and must be checked with errors.Is before
// being logged as a failure.
var ErrTermination = errors.New("termination phrase detected")

// IsTermination reports whether err is (or wraps) ErrTermination.
func IsTermination(err error) bool {
	return errors.Is(err, ErrTermination)
}
