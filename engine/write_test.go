package engine

import (
	"strings"
	"testing"

	"github.com/yourusername/httpwire/header"
	"github.com/yourusername/httpwire/telemetry"
	"github.com/yourusername/httpwire/urlx"
)

func TestWriteRequestComposesStartLineAndHeaders(t *testing.T) {
	ft := newFakeTransport()
	c := NewInbound(RoleServerEndpoint, ft, Callbacks{}, nil, DefaultConfig(), telemetry.NewNop())

	u, _ := urlx.Parse("/widgets?id=1")
	h := header.New(1)
	h.Add("Host", "example.com")

	ok := c.WriteRequest(&Request{Method: MethodGET, Version: version11, URL: u, Headers: h})
	if !ok {
		t.Fatalf("expected write-request to be accepted")
	}

	got := string(ft.outbound)
	want := "GET /widgets?id=1 HTTP/1.1\r\nHost: example.com\r\n\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriteChunkFraming(t *testing.T) {
	ft := newFakeTransport()
	c := NewInbound(RoleClientEndpoint, ft, Callbacks{}, nil, DefaultConfig(), telemetry.NewNop())

	c.WriteChunk([]byte("Wiki"))
	c.WriteChunk([]byte("pedia"))
	c.WriteChunkEnd()

	got := string(ft.outbound)
	want := "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSendErrorMarksNonPersistentConnectionClose(t *testing.T) {
	ft := newFakeTransport()
	c := NewInbound(RoleClientEndpoint, ft, Callbacks{}, nil, DefaultConfig(), telemetry.NewNop())
	c.persistent = false

	c.SendError(400)

	if !strings.Contains(string(ft.outbound), "Connection: close") {
		t.Fatalf("expected Connection: close in %q", ft.outbound)
	}
	if c.Phase() != PhaseMangled {
		t.Fatalf("expected mangled phase after sending a non-persistent error")
	}
}
