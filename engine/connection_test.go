package engine

import (
	"bytes"
	"testing"

	"github.com/yourusername/httpwire/telemetry"
)

func newTestConn(t *testing.T, role Role, cb Callbacks) (*Connection, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c := NewInbound(role, ft, cb, nil, DefaultConfig(), telemetry.NewNop())
	return c, ft
}

func TestFixedLengthResponse(t *testing.T) {
	var resp *Response
	var bodies [][]byte
	complete := false

	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnServerResponse: func(r *Response) { resp = r },
		OnReadBody: func(buf []byte) {
			bodies = append(bodies, append([]byte(nil), buf...))
		},
		OnMessageComplete: func() { complete = true },
	})

	ft.feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"))
	c.OnReadable()

	if resp == nil || resp.StatusCode != 200 || resp.Reason != "OK" || resp.Version != version11 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !complete {
		t.Fatalf("expected message complete")
	}
	var got bytes.Buffer
	for _, b := range bodies {
		got.Write(b)
	}
	if got.String() != "hello" {
		t.Fatalf("got body %q, want %q", got.String(), "hello")
	}
	if !c.IsPersistent() {
		t.Fatalf("expected persistent connection")
	}
}

func TestChunkedResponse(t *testing.T) {
	var bodies []string
	complete := false

	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnReadBody: func(buf []byte) {
			bodies = append(bodies, string(buf))
		},
		OnMessageComplete: func() { complete = true },
	})

	ft.feed([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"))
	c.OnReadable()

	if len(bodies) != 2 || bodies[0] != "Wiki" || bodies[1] != "pedia" {
		t.Fatalf("unexpected chunk deliveries: %#v", bodies)
	}
	if !complete {
		t.Fatalf("expected message complete")
	}
	if !c.IsPersistent() {
		t.Fatalf("expected persistent connection")
	}
}

func TestEOFDelimitedResponse(t *testing.T) {
	var body []byte
	complete := false

	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnReadBody: func(buf []byte) {
			body = append(body, buf...)
		},
		OnMessageComplete: func() { complete = true },
	})

	ft.feed([]byte("HTTP/1.0 200 OK\r\n\r\nhi"))
	c.OnReadable()
	c.OnError(errEOF{})

	if string(body) != "hi" {
		t.Fatalf("got body %q, want %q", body, "hi")
	}
	if !complete {
		t.Fatalf("expected message complete on EOF-completes")
	}
	if c.IsPersistent() {
		t.Fatalf("expected non-persistent connection for HTTP/1.0 EOF body")
	}
}

func TestClientPostWithoutLength(t *testing.T) {
	var errKind ErrorKind
	sawRequest := false

	c, ft := newTestConn(t, RoleClientEndpoint, Callbacks{
		OnClientRequest: func(*Request) { sawRequest = true },
		OnError:         func(e *Error) { errKind = e.Kind },
	})

	ft.feed([]byte("POST /x HTTP/1.1\r\nHost: a\r\n\r\n"))
	c.OnReadable()

	if sawRequest {
		t.Fatalf("did not expect a request callback")
	}
	if errKind != ErrClientPostWithoutLength {
		t.Fatalf("got error kind %v, want client-post-without-length", errKind)
	}
	if c.Phase() != PhaseMangled {
		t.Fatalf("got phase %v, want mangled", c.Phase())
	}
}

func TestConnectionCloseNegotiation(t *testing.T) {
	complete := false
	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnMessageComplete: func() { complete = true },
	})

	ft.feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"))
	c.OnReadable()

	if !complete {
		t.Fatalf("expected message complete")
	}
	if c.IsPersistent() {
		t.Fatalf("expected non-persistent connection after Connection: close")
	}
}

func TestBackpressureChokeAndUnchoke(t *testing.T) {
	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{})
	c.cfg.MaxWriteBacklog = 1024
	ft.maxBacklog = c.cfg.MaxWriteBacklog

	writeMoreCalls := 0
	c.cb.OnWriteMore = func() { writeMoreCalls++ }

	chunk := bytes.Repeat([]byte{'a'}, 256)
	var lastAccepted bool
	for i := 0; i < 5; i++ {
		lastAccepted = c.WriteBuf(chunk)
	}
	if lastAccepted {
		t.Fatalf("expected the 5th write to report choked")
	}
	if !c.choked {
		t.Fatalf("expected connection to be marked choked")
	}

	ft.outbound = nil // simulate the transport draining everything
	c.OnWritable()

	if writeMoreCalls != 1 {
		t.Fatalf("got %d on-write-more calls, want exactly 1", writeMoreCalls)
	}
	if !c.WriteBuf([]byte("more")) {
		t.Fatalf("expected write-buf to accept again after unchoke")
	}
}

func TestErrorIsTerminal(t *testing.T) {
	callbacksAfterError := 0
	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnError:           func(*Error) {},
		OnServerResponse:  func(*Response) { callbacksAfterError++ },
		OnMessageComplete: func() { callbacksAfterError++ },
	})

	ft.feed([]byte("GARBAGE\r\n\r\n"))
	c.OnReadable()

	if c.Phase() != PhaseMangled {
		t.Fatalf("expected mangled phase after malformed start line")
	}

	// Further readable edges must not produce any more callbacks (P6).
	ft.feed([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	c.OnReadable()
	if callbacksAfterError != 0 {
		t.Fatalf("expected no callbacks after the terminal error")
	}
}

type errEOF struct{}

func (errEOF) Error() string { return "EOF" }

// TestHeadersSplitAcrossReadsAreNotDuplicated guards against header.Parse
// being called again on bytes it has already Added: a header block that
// arrives over more than one OnReadable must still produce exactly one
// value per name, not a repeat of every already-parsed line.
func TestHeadersSplitAcrossReadsAreNotDuplicated(t *testing.T) {
	var resp *Response
	c, ft := newTestConn(t, RoleServerEndpoint, Callbacks{
		OnServerResponse: func(r *Response) { resp = r },
	})

	ft.feed([]byte("HTTP/1.1 200 OK\r\n"))
	c.OnReadable()
	ft.feed([]byte("Content-Length: 5\r\n"))
	c.OnReadable()
	ft.feed([]byte("\r\nhello"))
	c.OnReadable()

	if resp == nil {
		t.Fatalf("expected a response to have been parsed")
	}
	values := resp.Headers.Values("Content-Length")
	if len(values) != 1 {
		t.Fatalf("got %d Content-Length values %v, want exactly 1", len(values), values)
	}
	if values[0] != "5" {
		t.Fatalf("got Content-Length %q, want %q", values[0], "5")
	}
}
