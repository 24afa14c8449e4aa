package transport

import (
	"net"
	"time"

	"github.com/yourusername/httpwire/engine"
	"github.com/yourusername/httpwire/telemetry"
)

// edges is the subset of *engine.Connection a NetTransport drives. It adds
// OnWriteFailed to engine.Edges so write-side failures can be dispatched
// separately from read-side ones (§4.6: "any write-side failure" is
// always write-failed, regardless of phase).
type edges interface {
	engine.Edges
	OnWriteFailed(err error)
}

// readResult is what the background reader goroutine forwards to the
// driver loop for each completed conn.Read.
type readResult struct {
	buf []byte
	err error
}

// writeResult is what the background writer goroutine reports back after
// draining a chunk of the outbound buffer.
type writeResult struct {
	n   int
	err error
}

// NetTransport is the reference engine.Transport: a net.Conn wrapped so
// that all Connection-visible state (inbound/outbound buffers, enable
// bits) is only ever touched from the single driver-loop goroutine,
// matching the engine's no-locking, single-threaded model (§5). A
// dedicated reader goroutine performs the only blocking call
// (conn.Read); a dedicated writer goroutine performs the only blocking
// conn.Write, so neither stalls the driver loop on a slow peer.
type NetTransport struct {
	conn net.Conn
	log  telemetry.Logger
	cfg  engine.Config

	edges edges

	inbound  []byte
	outbound []byte

	readEnabled  bool
	writeEnabled bool
	writeInFlight bool
	watermarkLow int
	closed       bool

	readResults  chan readResult
	writeResults chan writeResult
	writeReq     chan []byte

	idleTimer *time.Timer
}

// NewNetTransport wraps conn. Call Bind before the transport will deliver
// any edges.
func NewNetTransport(conn net.Conn, cfg engine.Config, log telemetry.Logger) *NetTransport {
	if log == nil {
		log = telemetry.NewNop()
	}
	t := &NetTransport{
		conn:         conn,
		log:          log,
		cfg:          cfg,
		readEnabled:  true,
		writeEnabled: true,
		readResults:  make(chan readResult, 4),
		writeResults: make(chan writeResult, 4),
		writeReq:     make(chan []byte, 4),
	}
	return t
}

// Bind attaches the Connection this transport drives and starts the
// background reader/writer goroutines plus the driver loop that
// serializes their results onto the Connection's edges. outbound
// distinguishes a freshly-dialed connection (still CONNECTING, needs
// on-connect) from an accepted one (already IDLE).
func (t *NetTransport) Bind(e edges, outbound bool) {
	t.edges = e
	go t.readLoop()
	go t.writeLoop()
	go t.driverLoop()
	if outbound {
		t.edges.OnConnected()
	}
	t.armIdleTimer()
}

func (t *NetTransport) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		n, err := t.conn.Read(buf)
		if n > 0 {
			cp := append([]byte(nil), buf[:n]...)
			t.readResults <- readResult{buf: cp}
		}
		if err != nil {
			t.readResults <- readResult{err: err}
			return
		}
	}
}

func (t *NetTransport) writeLoop() {
	for p := range t.writeReq {
		n, err := t.conn.Write(p)
		t.writeResults <- writeResult{n: n, err: err}
	}
}

// driverLoop is the single goroutine that owns inbound/outbound buffer
// state and invokes the Connection's edges; everything else only talks
// to it through the three channels above.
func (t *NetTransport) driverLoop() {
	for {
		select {
		case r, ok := <-t.readResults:
			if !ok {
				return
			}
			if r.err != nil {
				if t.closed {
					return
				}
				t.edges.OnError(r.err)
				continue
			}
			t.inbound = append(t.inbound, r.buf...)
			t.resetIdleTimer()
			if t.readEnabled {
				t.edges.OnReadable()
			}

		case wr, ok := <-t.writeResults:
			if !ok {
				return
			}
			t.writeInFlight = false
			if wr.err != nil {
				t.edges.OnWriteFailed(wr.err)
				continue
			}
			t.outbound = t.outbound[wr.n:]
			t.pumpWrite()
			if t.writeEnabled {
				t.edges.OnWritable()
			}
		}
	}
}

// pumpWrite kicks off a background write for whatever remains in
// outbound, if nothing is already in flight.
func (t *NetTransport) pumpWrite() {
	if t.writeInFlight || len(t.outbound) == 0 || t.closed {
		return
	}
	t.writeInFlight = true
	chunk := append([]byte(nil), t.outbound...)
	t.writeReq <- chunk
}

// --- engine.Transport ---------------------------------------------------

func (t *NetTransport) ReadBuf() []byte { return t.inbound }

func (t *NetTransport) Consume(n int) {
	t.inbound = t.inbound[n:]
}

func (t *NetTransport) Write(p []byte) (accepted bool) {
	t.outbound = append(t.outbound, p...)
	t.pumpWrite()
	return len(t.outbound) <= t.cfg.MaxWriteBacklog
}

func (t *NetTransport) OutboundLen() int { return len(t.outbound) }

func (t *NetTransport) SetWatermark(low int) { t.watermarkLow = low }

func (t *NetTransport) EnableRead(enabled bool)  { t.readEnabled = enabled }
func (t *NetTransport) EnableWrite(enabled bool) { t.writeEnabled = enabled }

func (t *NetTransport) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	close(t.writeReq)
	return t.conn.Close()
}

// --- idle timeout (§4.6, §9) --------------------------------------------

// armIdleTimer starts the inactivity clock with IdleServerTimeout (used
// for every NetTransport, client-facing or server-facing). The timer runs
// for the whole connection, not only while the engine is IDLE: every
// inbound read pushes it back, the embedder may rearm it with
// ResetIdleTimer (relaytap does so from on-message-complete), and Close
// stops it. When it fires, the driver loop reports it through OnError, so
// the engine treats it like any read-side EOF/error for the current phase
// (idle-conn-timed-out in IDLE).
func (t *NetTransport) armIdleTimer() {
	timeout := t.cfg.IdleServerTimeout
	t.idleTimer = time.AfterFunc(timeout, func() {
		t.readResults <- readResult{err: errIdleTimeout}
	})
}

// ResetIdleTimer rearms the idle clock; call when the connection returns
// to IDLE after a successful message.
func (t *NetTransport) ResetIdleTimer() {
	if t.idleTimer != nil {
		t.idleTimer.Stop()
	}
	t.armIdleTimer()
}

func (t *NetTransport) resetIdleTimer() {
	if t.idleTimer != nil {
		t.idleTimer.Reset(t.cfg.IdleServerTimeout)
	}
}

var errIdleTimeout = idleTimeoutError{}

type idleTimeoutError struct{}

func (idleTimeoutError) Error() string { return "transport: idle timeout" }
