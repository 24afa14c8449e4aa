// Command relaytap is a minimal forward proxy built directly on
// github.com/yourusername/httpwire/engine: one RoleClientEndpoint
// connection accepts the browser's request, one RoleServerEndpoint
// connection relays it upstream, and each side's body bytes are streamed
// straight into the other's write path as they arrive.
package main

import (
	"context"
	"flag"
	"log"
	"net"

	"github.com/yourusername/httpwire/engine"
	"github.com/yourusername/httpwire/telemetry"
	"github.com/yourusername/httpwire/transport"
)

func main() {
	listenAddr := flag.String("listen", ":8888", "address to accept client connections on")
	upstream := flag.String("upstream", "", "host:port to relay every request to")
	flag.Parse()

	if *upstream == "" {
		log.Fatal("relaytap: -upstream is required")
	}

	logger, err := telemetry.NewProduction()
	if err != nil {
		log.Fatalf("relaytap: logger: %v", err)
	}
	defer logger.Sync()

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("relaytap: listen: %v", err)
	}
	log.Printf("relaytap: listening on %s, relaying to %s", *listenAddr, *upstream)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("relaytap: accept: %v", err)
			continue
		}
		go serve(conn, *upstream, logger)
	}
}

// pair links a downstream (client-facing) Connection to an upstream
// (server-facing) Connection so body bytes stream through without
// buffering the whole message.
type pair struct {
	down *engine.Connection
	up   *engine.Connection

	log telemetry.Logger
}

func serve(clientConn net.Conn, upstreamAddr string, logger telemetry.Logger) {
	cfg := engine.DefaultConfig()

	if err := transport.ApplyTuning(clientConn, transport.DefaultTuning()); err != nil {
		logger.Warn("tuning client conn failed", telemetry.Err(err))
	}

	upConn, err := transport.Dial(context.Background(), "tcp", upstreamAddr, transport.DefaultTuning())
	if err != nil {
		logger.Warn("dial upstream failed", telemetry.Err(err))
		_ = clientConn.Close()
		return
	}

	p := &pair{log: logger}

	downTransport := transport.NewNetTransport(clientConn, cfg, logger)
	upTransport := transport.NewNetTransport(upConn, cfg, logger)

	p.down = engine.NewInbound(engine.RoleClientEndpoint, downTransport, engine.Callbacks{
		OnError: func(err *engine.Error) {
			p.log.Warn("downstream error", telemetry.String("kind", err.Kind.String()))
			p.up.Free()
		},
		OnClientRequest: func(req *engine.Request) {
			p.up.WriteRequest(req)
		},
		OnReadBody: func(buf []byte) {
			p.up.WriteBuf(buf)
		},
		OnMessageComplete: func() {
			downTransport.ResetIdleTimer()
		},
	}, p, cfg, logger)

	p.up = engine.New(engine.RoleServerEndpoint, upTransport, engine.Callbacks{
		OnError: func(err *engine.Error) {
			p.log.Warn("upstream error", telemetry.String("kind", err.Kind.String()))
			p.down.Free()
		},
		OnServerResponse: func(resp *engine.Response) {
			p.down.WriteResponse(resp)
		},
		OnReadBody: func(buf []byte) {
			p.down.WriteBuf(buf)
		},
		OnMessageComplete: func() {
			upTransport.ResetIdleTimer()
		},
	}, p, cfg, logger)

	downTransport.Bind(p.down, false)
	upTransport.Bind(p.up, true)
}
