package basisu

import "github.com/cockroachdb/errors"

// ErrorKind classifies failures reported by this package.
type ErrorKind uint8

const (
	// KindUnknown is reported by KindOf for errors that did not originate here.
	KindUnknown ErrorKind = iota
	// KindInvalidContainer: the encoded file is not a valid container.
	KindInvalidContainer
	// KindOutOfRange: an image or level index is outside the file's ranges.
	KindOutOfRange
	// KindNotStarted: TranscodeImage was called before StartTranscoding.
	KindNotStarted
	// KindStartFailed: the backend refused to start transcoding.
	KindStartFailed
	// KindUnsupportedFormat: the target format cannot be produced or represented.
	KindUnsupportedFormat
	// KindTranscodeFailed: the backend failed to transcode an image/level.
	KindTranscodeFailed
	// KindClosed: the handle was used after Close.
	KindClosed
	// KindBackend: the backend itself failed (runtime trap, missing library).
	KindBackend
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidContainer:
		return "invalid container"
	case KindOutOfRange:
		return "index out of range"
	case KindNotStarted:
		return "transcoding not started"
	case KindStartFailed:
		return "start transcoding failed"
	case KindUnsupportedFormat:
		return "unsupported format"
	case KindTranscodeFailed:
		return "transcode failed"
	case KindClosed:
		return "file closed"
	case KindBackend:
		return "backend failure"
	default:
		return "unknown error"
	}
}

// Sentinel errors for use with errors.Is. Any *Error of the same kind matches.
var (
	ErrInvalidContainer  = &Error{Kind: KindInvalidContainer}
	ErrOutOfRange        = &Error{Kind: KindOutOfRange}
	ErrNotStarted        = &Error{Kind: KindNotStarted}
	ErrStartFailed       = &Error{Kind: KindStartFailed}
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrTranscodeFailed   = &Error{Kind: KindTranscodeFailed}
	ErrClosed            = &Error{Kind: KindClosed}
	ErrBackend           = &Error{Kind: KindBackend}
)

// Error is a typed error carrying the failure kind and the operation that
// reported it. Err, when set, is the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := "basisu: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e.Kind
	}
	return KindUnknown
}

func newError(kind ErrorKind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// BackendError wraps a backend failure so that it matches ErrBackend while
// keeping cause reachable through errors.Is/As. A cause that already carries
// a kind from this package is returned unchanged.
func BackendError(cause error, op string) error {
	if cause == nil {
		return nil
	}
	if KindOf(cause) != KindUnknown {
		return cause
	}
	return &Error{Kind: KindBackend, Op: op, Err: cause}
}
