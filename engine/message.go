package engine

import (
	"fmt"

	"github.com/yourusername/httpwire/header"
	"github.com/yourusername/httpwire/urlx"
)

// Version is the negotiated HTTP/1.x version of a message.
type Version struct {
	Major, Minor int
}

func (v Version) String() string {
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}

var (
	version10 = Version{Major: 1, Minor: 0}
	version11 = Version{Major: 1, Minor: 1}
)

// Request is constructed at header-complete on a client-role connection
// (§3). Ownership transfers to the embedder when it is handed to
// on-client-request; the Connection installs a fresh Headers list before
// the next message.
type Request struct {
	Method  Method
	Version Version
	URL     *urlx.URL
	Headers *header.List
}

// Response is constructed at header-complete on a server-role connection
// (§3). Ownership transfers to the embedder when it is handed to
// on-server-response.
type Response struct {
	Version    Version
	StatusCode int
	Reason     string
	Headers    *header.List
}
