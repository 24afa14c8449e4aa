// Package transport implements the reference byte-stream collaborator
// the engine consumes: a net.Conn-backed Transport that demultiplexes a
// blocking socket into the four-edge contract engine.Edges expects, plus
// the socket-level tuning a proxy's connections benefit from.
package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// TuningConfig mirrors the knobs a TCP-heavy proxy cares about. Zero
// values mean "leave the system default".
type TuningConfig struct {
	NoDelay    bool
	RecvBuffer int
	SendBuffer int
	KeepAlive  bool
}

// DefaultTuning matches the values the reference socket package shipped
// as its recommended default.
func DefaultTuning() TuningConfig {
	return TuningConfig{
		NoDelay:    true,
		RecvBuffer: 256 * 1024,
		SendBuffer: 256 * 1024,
		KeepAlive:  true,
	}
}

// ApplyTuning sets socket options on conn via golang.org/x/sys/unix,
// replacing the reference implementation's raw syscall.SetsockoptInt
// calls with the cross-platform unix package so the same call sites work
// on darwin and linux without a build-tag fork per option.
func ApplyTuning(conn net.Conn, cfg TuningConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}

	var lastErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		if cfg.NoDelay {
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
				lastErr = err
			}
		}
		if cfg.RecvBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuffer)
		}
		if cfg.SendBuffer > 0 {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuffer)
		}
		if cfg.KeepAlive {
			_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
		}
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return lastErr
}
