package engine

// fakeTransport is a synchronous, single-goroutine engine.Transport
// double: it buffers inbound bytes directly, records every outbound
// write, and lets a test drive EOF/error edges deterministically. It
// purposely has no background goroutines so tests can single-step the
// state machine.
type fakeTransport struct {
	inbound  []byte
	outbound []byte

	// maxBacklog mirrors NetTransport.Write's own backlog check
	// (len(outbound) <= cfg.MaxWriteBacklog) so tests can exercise the
	// same backpressure-vs-failure contract the reference transport
	// enforces, rather than Write always accepting.
	maxBacklog int

	watermark   int
	readEnable  bool
	writeEnable bool
	closed      bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{readEnable: true, writeEnable: true, maxBacklog: 1 << 30}
}

func (f *fakeTransport) feed(p []byte) { f.inbound = append(f.inbound, p...) }

func (f *fakeTransport) ReadBuf() []byte { return f.inbound }

func (f *fakeTransport) Consume(n int) { f.inbound = f.inbound[n:] }

func (f *fakeTransport) Write(p []byte) bool {
	f.outbound = append(f.outbound, p...)
	return len(f.outbound) <= f.maxBacklog
}

func (f *fakeTransport) OutboundLen() int { return len(f.outbound) }

func (f *fakeTransport) SetWatermark(low int) { f.watermark = low }

func (f *fakeTransport) EnableRead(enabled bool)  { f.readEnable = enabled }
func (f *fakeTransport) EnableWrite(enabled bool) { f.writeEnable = enabled }

func (f *fakeTransport) Close() error {
	f.closed = true
	return nil
}
