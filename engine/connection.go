package engine

import (
	"strconv"
	"strings"

	"github.com/yourusername/httpwire/bufpool"
	"github.com/yourusername/httpwire/header"
	"github.com/yourusername/httpwire/telemetry"
	"github.com/yourusername/httpwire/urlx"
)

// Connection is the single-object protocol engine (§2): one instance per
// byte stream, driving its own phase state machine off transport edges and
// embedder verbs. Nothing inside it is safe for concurrent use — it is
// meant to run entirely on the goroutine that owns its Transport.
type Connection struct {
	role Role
	cfg  Config
	log  telemetry.Logger

	transport Transport
	cb        Callbacks
	cookie    any

	phase Phase

	version        Version
	haveVersion    bool
	transferCoding transferCoding
	hasBody        bool
	remaining      int64
	eofCompletes   bool
	persistent     bool
	versionChanged bool

	choked     bool
	readPaused bool

	chunkSub chunkSub

	firstLine []byte
	headers   *header.List

	scratch *bufpool.Buffer

	// bodylessOverride forces CurrentMessageHasBody to report false until
	// the current message ends, via SetCurrentMessageBodylessFlag.
	bodylessOverride bool

	// dispatching counts re-entrant calls into the driver loop (OnReadable
	// can re-enter itself via StartReading; see §9's reentrancy note).
	// pendingFree records that Free was requested while dispatching was
	// nonzero, so actual teardown is deferred to when the outermost call
	// returns instead of happening underneath a callback still on the
	// stack.
	dispatching int
	pendingFree bool
	freed       bool
}

// New constructs a Connection bound to transport, ready to drive cb's
// edges. cookie is opaque embedder state threaded through without
// interpretation (§6).
func New(role Role, transport Transport, cb Callbacks, cookie any, cfg Config, log telemetry.Logger) *Connection {
	if log == nil {
		log = telemetry.NewNop()
	}
	c := &Connection{
		role:      role,
		cfg:       cfg,
		log:       log,
		transport: transport,
		cb:        cb,
		cookie:    cookie,
		phase:     PhaseConnecting,
		scratch:   bufpool.Get(),
	}
	return c
}

// NewInbound constructs a Connection for a transport that is already live
// (an accepted connection has no CONNECTING phase; §4.1).
func NewInbound(role Role, transport Transport, cb Callbacks, cookie any, cfg Config, log telemetry.Logger) *Connection {
	c := New(role, transport, cb, cookie, cfg, log)
	c.beginMessage()
	return c
}

// Cookie returns the opaque embedder value passed to New.
func (c *Connection) Cookie() any { return c.cookie }

// Phase reports the connection's current state machine position.
func (c *Connection) Phase() Phase { return c.phase }

// IsPersistent reports whether the connection may be reused for another
// message after the current one completes (§4.3, P3).
func (c *Connection) IsPersistent() bool {
	return c.phase != PhaseMangled && c.persistent
}

// CurrentMessageHasBody reports the has-body flag computed at header
// complete for the in-progress message, or false once
// SetCurrentMessageBodylessFlag has been called for it.
func (c *Connection) CurrentMessageHasBody() bool { return c.hasBody && !c.bodylessOverride }

// SetCurrentMessageBodylessFlag forces has-body false, as reported by
// CurrentMessageHasBody, until the current message ends; the read-side
// framing already computed for that message is left as it is. Only
// meaningful for a RoleClientEndpoint connection building a response (§6).
func (c *Connection) SetCurrentMessageBodylessFlag() {
	c.bodylessOverride = true
}

// Free releases the connection's buffers and closes its transport. It is
// idempotent. If called while the Connection is still on the stack of one
// of its own callback dispatches (§9's reentrancy note — an embedder may
// free the Connection from inside a callback), actual teardown is
// deferred until that dispatch unwinds.
func (c *Connection) Free() {
	if c.freed || c.pendingFree {
		return
	}
	if c.dispatching > 0 {
		c.pendingFree = true
		return
	}
	c.teardown()
}

func (c *Connection) teardown() {
	c.freed = true
	if c.scratch != nil {
		bufpool.Put(c.scratch)
		c.scratch = nil
	}
	c.firstLine = nil
	c.headers = nil
	if c.transport != nil {
		_ = c.transport.Close()
	}
}

// beginMessage resets per-message scalar state and arms the next
// first-line read (§4.4 end-of-message procedure, §9 reuse note).
func (c *Connection) beginMessage() {
	c.phase = PhaseIdle
	c.firstLine = nil
	c.headers = nil
	c.hasBody = false
	c.remaining = -1
	c.eofCompletes = false
	c.transferCoding = transferIdentity
	c.chunkSub = chunkNeedLength
	c.bodylessOverride = false
	c.transport.EnableRead(true)
	c.transport.EnableWrite(true)
}

// endMessage implements §4.4's end-of-message procedure: free staging
// buffers, decide MANGLED vs fresh IDLE, and fire exactly one terminal
// callback.
func (c *Connection) endMessage(err *Error) {
	c.firstLine = nil
	c.headers = nil

	if err != nil || !c.persistent {
		c.phase = PhaseMangled
		c.persistent = false
		c.transport.EnableRead(false)
		c.transport.EnableWrite(false)
		if err != nil {
			if c.cb.OnError != nil {
				c.cb.OnError(err)
			}
			return
		}
		if c.cb.OnMessageComplete != nil {
			c.cb.OnMessageComplete()
		}
		return
	}

	c.beginMessage()
	if c.cb.OnMessageComplete != nil {
		c.cb.OnMessageComplete()
	}
}

// fail transitions to MANGLED and delivers exactly one on-error (§7).
func (c *Connection) fail(kind ErrorKind, cause error) {
	c.phase = PhaseMangled
	c.persistent = false
	c.transport.EnableRead(false)
	c.transport.EnableWrite(false)
	if c.cb.OnError != nil {
		c.cb.OnError(newErr(kind, cause))
	}
}

// --- Edges (implements Edges; §4.6) -----------------------------------

// enterDispatch/exitDispatch bracket every public edge entry point so
// Free can tell whether it was called from underneath one of them (§9
// reentrancy note) and defer teardown until the outermost call returns.
func (c *Connection) enterDispatch() bool {
	if c.freed {
		return false
	}
	c.dispatching++
	return true
}

func (c *Connection) exitDispatch() {
	c.dispatching--
	if c.dispatching == 0 && c.pendingFree {
		c.teardown()
	}
}

// OnConnected is the transport edge fired once an outbound connect
// succeeds.
func (c *Connection) OnConnected() {
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()

	if c.phase != PhaseConnecting {
		return
	}
	c.beginMessage()
	if c.cb.OnConnect != nil {
		c.cb.OnConnect()
	}
}

// OnError is the transport edge for connect-failure and read-side
// EOF/error, dispatched by current phase (§4.6). Write-side failures
// arrive through OnWriteFailed instead.
func (c *Connection) OnError(err error) {
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()

	if c.phase == PhaseMangled {
		return
	}
	if c.phase == PhaseConnecting {
		c.fail(ErrConnectFailed, err)
		return
	}

	switch c.phase {
	case PhaseIdle:
		c.fail(ErrIdleConnTimedOut, err)
	case PhaseReadFirstLine, PhaseReadHeaders:
		c.fail(ErrIncompleteHeaders, err)
	case PhaseReadBody:
		if c.eofCompletes {
			c.endMessage(nil)
		} else {
			c.fail(ErrIncompleteBody, err)
		}
	default:
		c.fail(ErrIncompleteHeaders, err)
	}
}

// OnWriteFailed is the dedicated write-side failure edge (§4.6): any
// transport write failure is always write-failed regardless of phase.
func (c *Connection) OnWriteFailed(err error) {
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()

	if c.phase == PhaseMangled {
		return
	}
	c.fail(ErrWriteFailed, err)
}

// OnReadable is the transport edge fired when new bytes are buffered.
// It drives the state machine until input is exhausted, the phase cannot
// progress, or reading has been paused (§4.1).
func (c *Connection) OnReadable() {
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()
	c.driveInput()
}

// OnWritable is the transport edge fired when the write side can accept
// more bytes. It clears the choke (delivering on-write-more exactly once
// per cycle) and fires on-flush when the buffer has drained to empty
// without ever having choked (§4.5).
func (c *Connection) OnWritable() {
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()

	if c.phase == PhaseMangled {
		return
	}
	if c.choked {
		if c.transport.OutboundLen() <= c.cfg.MaxWriteBacklog/2 {
			c.choked = false
			c.transport.SetWatermark(0)
			if c.cb.OnWriteMore != nil {
				c.cb.OnWriteMore()
			}
		}
		return
	}
	if c.transport.OutboundLen() == 0 {
		if c.cb.OnFlush != nil {
			c.cb.OnFlush()
		}
	}
}

// driveInput is the parsing driver (§4.1, §4.4): it repeatedly inspects
// the transport's read buffer and advances phase, consuming one message
// after another (pipelined reuse) in a single wake-up.
func (c *Connection) driveInput() {
	for {
		if c.phase == PhaseMangled || c.readPaused {
			return
		}

		buf := c.transport.ReadBuf()

		switch c.phase {
		case PhaseIdle:
			if len(buf) == 0 {
				return
			}
			c.phase = PhaseReadFirstLine
			continue

		case PhaseReadFirstLine:
			n, ok, malformed := readLine(buf, c.cfg.MaxStartLineSize)
			if malformed {
				c.fail(ErrHeaderParseFailed, nil)
				return
			}
			if !ok {
				return
			}
			c.firstLine = append([]byte(nil), buf[:n-2]...)
			c.transport.Consume(n)
			c.headers = header.New(8)
			c.phase = PhaseReadHeaders
			continue

		case PhaseReadHeaders:
			buf = c.transport.ReadBuf()
			consumed, status := header.Parse(c.headers, buf)
			switch status {
			case header.StatusNeedMore:
				// Parse never backtracks: every line up through consumed has
				// already been Added to c.headers, so it must be dropped now
				// or the next call will re-Add it when more bytes arrive.
				c.transport.Consume(consumed)
				if len(buf)-consumed > c.cfg.MaxHeaderBlockSize {
					c.fail(ErrHeaderParseFailed, nil)
				}
				return
			case header.StatusMalformed:
				c.fail(ErrHeaderParseFailed, nil)
				return
			}
			c.transport.Consume(consumed)
			if !c.onHeadersComplete() {
				return
			}
			continue

		case PhaseReadBody:
			if !c.streamBody() {
				return
			}
			continue

		default:
			return
		}
	}
}

// readLine scans buf for a CRLF-terminated line no longer than max. It
// returns the byte count through and including the CRLF, or ok=false if
// no full line is buffered yet, or malformed=true if the line exceeds max
// before a terminator is found.
func readLine(buf []byte, max int) (n int, ok bool, malformed bool) {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return i + 2, true, false
		}
	}
	if len(buf) > max {
		return 0, false, true
	}
	return 0, false, false
}

// onHeadersComplete builds the Request/Response, computes framing (§4.3),
// fires the message-start callback, and advances to READ_BODY or
// end-of-message. Returns false if the driver loop must stop (error or
// paused).
func (c *Connection) onHeadersComplete() bool {
	switch c.role {
	case RoleClientEndpoint:
		return c.completeRequest()
	default:
		return c.completeResponse()
	}
}

func (c *Connection) completeRequest() bool {
	method, target, version, ok := splitRequestLine(c.firstLine)
	if !ok {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}
	m := parseMethod(method)
	if m == MethodUnknown {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}
	v, ok := parseVersion(version)
	if !ok {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}
	u, err := urlx.Parse(target)
	if err != nil {
		c.fail(ErrHeaderParseFailed, err)
		return false
	}

	c.applyVersion(v)
	c.hasBody = m == MethodPOST || m == MethodPUT

	if !c.computeFraming() {
		return false
	}

	req := &Request{Method: m, Version: v, URL: u, Headers: c.headers}
	c.headers = nil
	if c.cb.OnClientRequest != nil {
		c.cb.OnClientRequest(req)
	}
	return c.afterMessageStart()
}

func (c *Connection) completeResponse() bool {
	version, status, reason, ok := splitStatusLine(c.firstLine)
	if !ok {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}
	v, ok := parseVersion(version)
	if !ok {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 999 {
		c.fail(ErrHeaderParseFailed, nil)
		return false
	}

	c.applyVersion(v)
	c.hasBody = !(code/100 == 1 || code == 204 || code == 205 || code == 304)

	if !c.computeFraming() {
		return false
	}

	resp := &Response{Version: v, StatusCode: code, Reason: reason, Headers: c.headers}
	c.headers = nil
	if c.cb.OnServerResponse != nil {
		c.cb.OnServerResponse(resp)
	}
	return c.afterMessageStart()
}

func (c *Connection) afterMessageStart() bool {
	if c.phase == PhaseMangled {
		return false
	}
	if c.hasBody {
		c.phase = PhaseReadBody
		return true
	}
	c.endMessage(nil)
	return c.phase != PhaseMangled
}

func (c *Connection) applyVersion(v Version) {
	if c.haveVersion && v != c.version {
		c.versionChanged = true
	}
	c.version = v
	c.haveVersion = true
}

// computeFraming implements §4.3's deterministic body-framing procedure
// against c.headers (still owned by the Connection at this point).
func (c *Connection) computeFraming() bool {
	c.transferCoding = transferIdentity
	c.eofCompletes = false
	c.remaining = -1

	if c.hasBody {
		if te, ok := c.headers.Get("Transfer-Encoding"); ok {
			if strings.EqualFold(strings.TrimSpace(te), "chunked") {
				c.transferCoding = transferChunked
			} else {
				c.log.Warn("ignoring unsupported transfer-encoding", telemetry.String("value", te))
			}
		}
		if c.transferCoding != transferChunked {
			if cl, ok := c.headers.Get("Content-Length"); ok {
				n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
				if err != nil || n < 0 {
					c.fail(ErrHeaderParseFailed, err)
					return false
				}
				c.remaining = n
				if n == 0 {
					c.hasBody = false
				}
			} else {
				c.eofCompletes = true
			}
		}
	}

	if c.hasBody && c.role == RoleClientEndpoint && c.transferCoding != transferChunked && c.remaining < 0 {
		c.fail(ErrClientPostWithoutLength, nil)
		return false
	}

	c.persistent = !c.versionChanged && !c.eofCompletes && c.version == version11
	c.versionChanged = false
	if conn, ok := c.headers.Get("Connection"); ok {
		if strings.EqualFold(strings.TrimSpace(conn), "close") {
			c.persistent = false
		}
	}

	c.chunkSub = chunkNeedLength
	return true
}
