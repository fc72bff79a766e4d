package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why a call to an external service did not produce a value.
type FailureKind int

const (
	// KindTransport covers network errors and timeouts.
	KindTransport FailureKind = iota + 1
	// KindService covers non-success responses and provider-side errors.
	KindService
	// KindMalformed covers responses that could not be decoded or lacked the expected fields.
	KindMalformed
)

func (k FailureKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindService:
		return "service"
	case KindMalformed:
		return "malformed"
	default:
		return "none"
	}
}

// Failure is the error every adapter returns. Op names the adapter operation, e.g. "mymemory.translate".
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s failure", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s failure: %v", f.Op, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func Transport(op string, err error) error {
	return &Failure{Kind: KindTransport, Op: op, Err: err}
}

func Service(op string, err error) error {
	return &Failure{Kind: KindService, Op: op, Err: err}
}

func Malformed(op string, err error) error {
	return &Failure{Kind: KindMalformed, Op: op, Err: err}
}

// KindOf reports the failure kind carried by err. Unclassified network and
// context errors count as transport failures; anything else as a service failure.
func KindOf(err error) FailureKind {
	if err == nil {
		return 0
	}

	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return KindTransport
	}

	return KindService
}

// Classify wraps err as a Failure, keeping an existing classification and
// otherwise deciding between transport and service like KindOf does.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Kind: KindOf(err), Op: op, Err: err}
}
