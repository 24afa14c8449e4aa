package engine

import (
	"strconv"

	"github.com/yourusername/httpwire/header"
)

// WriteRequest composes and queues a request start line followed by its
// headers (§4.5): used by a RoleServerEndpoint connection (we are the
// client of an upstream).
func (c *Connection) WriteRequest(req *Request) bool {
	target := "/"
	if req.URL != nil {
		target = req.URL.String()
	}
	line := req.Method.String() + " " + target + " " + req.Version.String() + "\r\n"
	return c.writeHead([]byte(line), req.Headers)
}

// WriteResponse composes and queues a status line followed by its
// headers (§4.5): used by a RoleClientEndpoint connection.
func (c *Connection) WriteResponse(resp *Response) bool {
	reason := resp.Reason
	if reason == "" {
		reason = statusText(resp.StatusCode)
	}
	line := resp.Version.String() + " " + strconv.Itoa(resp.StatusCode) + " " + reason + "\r\n"
	return c.writeHead([]byte(line), resp.Headers)
}

func (c *Connection) writeHead(line []byte, headers *header.List) bool {
	out := append([]byte(nil), line...)
	if headers != nil {
		out = header.Dump(headers, out)
	}
	out = append(out, '\r', '\n')
	return c.WriteBuf(out)
}

// WriteBuf appends p to the outbound buffer and applies the backpressure
// rule of §4.5: Transport.Write reports false once the resulting outbound
// length exceeds max-write-backlog, which is backpressure, not failure
// (an actual write error reaches the connection asynchronously through
// OnWriteFailed instead, driven by the transport). On that false the
// connection is marked choked, its low watermark set to half the
// threshold, and false is returned so the embedder stops producing.
func (c *Connection) WriteBuf(p []byte) (accepted bool) {
	if c.phase == PhaseMangled {
		return false
	}
	if !c.transport.Write(p) {
		c.choked = true
		c.transport.SetWatermark(c.cfg.MaxWriteBacklog / 2)
		return false
	}
	return true
}

// WriteChunk frames p as a single chunked-transfer-encoding chunk before
// queuing it (§9: outbound chunked re-framing is left to the embedder by
// the reference design; this helper is provided so callers do not each
// reimplement hex framing by hand).
func (c *Connection) WriteChunk(p []byte) bool {
	size := strconv.FormatInt(int64(len(p)), 16)
	buf := make([]byte, 0, len(size)+2+len(p)+2)
	buf = append(buf, size...)
	buf = append(buf, '\r', '\n')
	buf = append(buf, p...)
	buf = append(buf, '\r', '\n')
	return c.WriteBuf(buf)
}

// WriteChunkEnd queues the terminating zero-length chunk with no
// trailers.
func (c *Connection) WriteChunkEnd() bool {
	return c.WriteBuf([]byte("0\r\n\r\n"))
}

// Flush is the embedder-invoked verb (§6) that requests an immediate
// on-flush check; most transports only need the natural OnWritable edge,
// but an embedder may call this after queuing writes with no pending
// watch registered yet.
func (c *Connection) Flush() {
	c.OnWritable()
}

// StopReading disables the transport's read side and marks the
// connection read-paused (§4.5).
func (c *Connection) StopReading() {
	c.readPaused = true
	c.transport.EnableRead(false)
}

// StartReading clears read-paused, re-enables the transport's read side,
// and — if bytes are already buffered — resumes the state machine by
// redriving input processing (§4.5, §9 reentrancy note).
func (c *Connection) StartReading() {
	c.readPaused = false
	c.transport.EnableRead(true)
	if !c.enterDispatch() {
		return
	}
	defer c.exitDispatch()
	c.driveInput()
}

// SendError composes a minimal error response carrying a Connection
// header reflecting whether the connection can be reused afterward: the
// reference design leaves this incomplete (§7); this implementation
// always sends "close" when the connection is mid-body or already
// non-persistent, and "keep-alive" otherwise.
func (c *Connection) SendError(code int) bool {
	persist := c.persistent && c.phase != PhaseReadBody
	connVal := "keep-alive"
	if !persist {
		connVal = "close"
	}

	h := header.New(2)
	h.Add("Content-Length", "0")
	h.Add("Connection", connVal)
	resp := &Response{Version: version11, StatusCode: code, Reason: statusText(code), Headers: h}
	ok := c.WriteResponse(resp)
	if !persist {
		c.phase = PhaseMangled
		c.persistent = false
		c.transport.EnableRead(false)
		c.transport.EnableWrite(false)
	}
	return ok
}
