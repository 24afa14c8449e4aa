package transport

import (
	"context"
	"net"
)

// Dial implements the engine's connect(dns, family, host, port) verb
// (§6): it resolves and connects a TCP socket, applies tuning, and
// returns the connected net.Conn, which the caller wraps with
// NewNetTransport before Bind. On failure it returns a nil conn and the
// dial or tuning error; no Connection exists yet for it to report a
// connect-failed on-error to.
func Dial(ctx context.Context, network, addr string, tuning TuningConfig) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if err := ApplyTuning(conn, tuning); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
