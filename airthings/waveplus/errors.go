package waveplus

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why a sensor check failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindAdapterNotFound
	KindDeviceNotFound
	KindCharacteristicNotFound
	KindMalformedPayload
	KindScanFailed
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindAdapterNotFound:
		return "adapter_not_found"
	case KindDeviceNotFound:
		return "device_not_found"
	case KindCharacteristicNotFound:
		return "characteristic_not_found"
	case KindMalformedPayload:
		return "malformed_payload"
	case KindScanFailed:
		return "scan_failed"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

var (
	ErrBluetoothAdapterNotFound         = errors.New("bluetooth adapter not found")
	ErrSensorDeviceNotFound             = errors.New("sensor device not found")
	ErrSensorReadCharacteristicNotFound = errors.New("sensor read characteristic not found")
	ErrMalformedPayload                 = errors.New("malformed sensor payload")
)

// Error is returned by every stage of a sensor check.
type Error struct {
	Kind Kind
	// stage that failed, e.g. "scan" or "read characteristic"
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause see through to the underlying failure.
func (e *Error) Cause() error {
	return e.Err
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
