package engine

// Callbacks is the embedder-facing vtable (§6). The Connection drives
// exactly one of these per edge as it advances through its state machine;
// see the table in spec.md §6 for the precise firing contract each field
// must satisfy. There is no separate "cookie" parameter (§2 ADD) — an
// embedder closes over whatever state it needs when building the struct.
//
// Any nil field is simply not called; an embedder only interested in
// response bodies, say, can leave OnClientRequest nil on a connection that
// will never see one.
type Callbacks struct {
	// OnConnect fires once after an outbound Connect succeeds.
	OnConnect func()

	// OnError fires on any protocol or transport failure. Terminal for
	// the connection: no further callback fires afterward (P6).
	OnError func(err *Error)

	// OnClientRequest fires once per request on a RoleClientEndpoint
	// connection, immediately after headers complete and framing has
	// been computed. req.Headers ownership transfers to the callback.
	OnClientRequest func(req *Request)

	// OnServerResponse fires once per response on a RoleServerEndpoint
	// connection. resp.Headers ownership transfers to the callback.
	OnServerResponse func(resp *Response)

	// OnReadBody fires zero or more times per message with body bytes.
	// buf is only valid for the duration of the call; the embedder must
	// copy anything it needs to keep (§3: "the engine does not drain it").
	OnReadBody func(buf []byte)

	// OnMessageComplete fires exactly once per successfully streamed
	// message.
	OnMessageComplete func()

	// OnWriteMore fires once per choke/unchoke cycle, when the outbound
	// buffer has drained back under the low watermark.
	OnWriteMore func()

	// OnFlush fires when the outbound buffer drains to empty without
	// ever having been choked.
	OnFlush func()
}
