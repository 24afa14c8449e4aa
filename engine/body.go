package engine

import "strconv"

// streamBody drains one step of the in-progress READ_BODY phase (§4.4):
// identity-with-length, identity-to-EOF, or chunked. It returns false when
// the driver loop must stop (no more input, or an error/pause occurred).
func (c *Connection) streamBody() bool {
	if c.transferCoding == transferChunked {
		return c.streamChunked()
	}
	return c.streamIdentity()
}

// streamIdentity handles both identity-with-length (remaining >= 0) and
// identity-to-EOF (eofCompletes; end-of-message is driven by OnError on
// EOF instead, so here it just forwards whatever is buffered).
func (c *Connection) streamIdentity() bool {
	buf := c.transport.ReadBuf()
	if len(buf) == 0 {
		return false
	}

	if c.eofCompletes {
		c.deliverBody(buf)
		c.transport.Consume(len(buf))
		return false
	}

	n := len(buf)
	if int64(n) > c.remaining {
		n = int(c.remaining)
	}
	if n > 0 {
		c.deliverBody(buf[:n])
		c.transport.Consume(n)
		c.remaining -= int64(n)
	}
	if c.remaining == 0 {
		c.endMessage(nil)
		return c.phase != PhaseMangled
	}
	return false
}

// streamChunked advances the chunked sub-state machine (§4.4).
func (c *Connection) streamChunked() bool {
	for {
		buf := c.transport.ReadBuf()

		switch c.chunkSub {
		case chunkNeedLength:
			n, ok, malformed := readLine(buf, MaxChunkLineSize)
			if malformed {
				c.fail(ErrChunkParseFailed, nil)
				return false
			}
			if !ok {
				return false
			}
			lineBytes := buf[:n-2]
			c.transport.Consume(n)
			if len(lineBytes) == 0 {
				continue // leading empty lines tolerated (§6)
			}
			size, err := strconv.ParseInt(string(lineBytes), 16, 64)
			if err != nil || size < 0 {
				c.fail(ErrChunkParseFailed, nil)
				return false
			}
			if size == 0 {
				c.chunkSub = chunkNeedTerminator
				continue
			}
			c.remaining = size
			c.chunkSub = chunkDrainBody
			continue

		case chunkDrainBody:
			buf = c.transport.ReadBuf()
			if len(buf) == 0 {
				return false
			}
			n := len(buf)
			if int64(n) > c.remaining {
				n = int(c.remaining)
			}
			if n > 0 {
				c.deliverBody(buf[:n])
				c.transport.Consume(n)
				c.remaining -= int64(n)
			}
			if c.remaining == 0 {
				// consume the CRLF that terminates this chunk's data
				buf = c.transport.ReadBuf()
				if len(buf) < 2 {
					return false
				}
				c.transport.Consume(2)
				c.chunkSub = chunkNeedLength
			}
			continue

		case chunkNeedTerminator:
			buf = c.transport.ReadBuf()
			n, ok, malformed := readLine(buf, MaxChunkLineSize)
			if malformed {
				c.fail(ErrChunkParseFailed, nil)
				return false
			}
			if !ok {
				return false
			}
			trailer := buf[:n-2]
			c.transport.Consume(n)
			if len(trailer) != 0 {
				c.log.Warn("discarding chunked trailer, trailers unsupported")
			}
			c.endMessage(nil)
			return c.phase != PhaseMangled
		}
	}
}

// deliverBody copies p into the scratch buffer before handing it to the
// embedder, decoupling on-read-body from the transport's own buffer
// (§3: "scratch body buffer").
func (c *Connection) deliverBody(p []byte) {
	c.scratch.Reset()
	_, _ = c.scratch.Write(p)
	if c.cb.OnReadBody != nil {
		c.cb.OnReadBody(c.scratch.B)
	}
}

// MaxChunkLineSize bounds a chunk-size/trailer line the same way the
// header block is bounded.
const MaxChunkLineSize = 1024
