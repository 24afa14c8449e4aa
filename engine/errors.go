package engine

import "fmt"

// ErrorKind enumerates the error taxonomy of §7: every on-error callback
// carries exactly one of these, distinguishing recoverable protocol errors
// from fatal transport errors. All of them are terminal for the
// connection — see Error.
type ErrorKind uint8

const (
	// ErrConnectFailed: an outbound transport never established.
	ErrConnectFailed ErrorKind = iota
	// ErrIdleConnTimedOut: EOF or timeout while awaiting a new message on
	// a kept-alive connection.
	ErrIdleConnTimedOut
	// ErrIncompleteHeaders: EOF mid-start-line or mid-headers.
	ErrIncompleteHeaders
	// ErrHeaderParseFailed: malformed start line, unknown method, unknown
	// version, bad URL, or the header parser rejected a line.
	ErrHeaderParseFailed
	// ErrClientPostWithoutLength: an inbound request declared a body but
	// gave neither Content-Length nor chunked framing.
	ErrClientPostWithoutLength
	// ErrChunkParseFailed: unreadable hex chunk length.
	ErrChunkParseFailed
	// ErrIncompleteBody: EOF before a fixed-length or chunked body
	// completed, and EOF-completes was false.
	ErrIncompleteBody
	// ErrWriteFailed: any write-side transport failure.
	ErrWriteFailed
)

func (k ErrorKind) String() string {
	switch k {
	case ErrConnectFailed:
		return "connect-failed"
	case ErrIdleConnTimedOut:
		return "idle-conn-timed-out"
	case ErrIncompleteHeaders:
		return "incomplete-headers"
	case ErrHeaderParseFailed:
		return "header-parse-failed"
	case ErrClientPostWithoutLength:
		return "client-post-without-length"
	case ErrChunkParseFailed:
		return "chunk-parse-failed"
	case ErrIncompleteBody:
		return "incomplete-body"
	case ErrWriteFailed:
		return "write-failed"
	default:
		return "unknown-error"
	}
}

// Error is the value on-error delivers. Cause is the underlying transport
// or parse error where one exists (e.g. the net.Conn read error, or the
// URL / Content-Length parse error behind a header-parse-failed); it is
// nil where the engine detects the error itself (e.g. a malformed start
// line).
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("httpwire: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("httpwire: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

func newErr(kind ErrorKind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}
