package pngdec

import "github.com/pkg/errors"

// Status is the numeric result code returned by every fallible
// operation, per the error taxonomy: 0 means success, everything else
// is a failure whose detail is available from Decoder.LastError.
type Status int

const (
	StatusSuccess Status = iota
	StatusInvalidParameter
	StatusDecodeError
	StatusMemError
	StatusNoBuffer
	StatusUnsupportedFeature
	StatusInvalidFile
	StatusTooBig
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusDecodeError:
		return "decode error"
	case StatusMemError:
		return "out of scratch memory"
	case StatusNoBuffer:
		return "no output buffer"
	case StatusUnsupportedFeature:
		return "unsupported feature"
	case StatusInvalidFile:
		return "invalid file"
	case StatusTooBig:
		return "image too big"
	default:
		return "unknown status"
	}
}

// DecodeError pairs a Status with a human-readable detail. It is the
// concrete type latched by Decoder.lastErr and returned (wrapped with
// errors.WithStack at the call site) from every fallible entry point.
type DecodeError struct {
	Status Status
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return e.Status.String()
	}
	return e.Status.String() + ": " + e.Detail
}

func newErr(s Status, detail string) error {
	return errors.WithStack(&DecodeError{Status: s, Detail: detail})
}

// StatusOf unwraps err (which may be wrapped one or more times by
// errors.WithStack, as every fallible path in this package does) down
// to its DecodeError and returns its Status. A nil err reports
// StatusSuccess; a non-nil err whose cause is not a *DecodeError
// reports StatusDecodeError, since it still represents a failed
// decode.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return de.Status
	}
	return StatusDecodeError
}

// state is the decoder's lifecycle: a session moves forward from
// Uninitialized through Opened and Decoding to either Done or Failed,
// and Close moves any other state except Uninitialized to Closed.
type state int

const (
	stateUninitialized state = iota
	stateOpened
	stateDecoding
	stateDone
	stateFailed
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateOpened:
		return "opened"
	case stateDecoding:
		return "decoding"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	case stateClosed:
		return "closed"
	default:
		return "invalid"
	}
}
