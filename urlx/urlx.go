// Package urlx tokenizes an HTTP request-target into the handful of fields
// the engine needs (host, port, path+query) without exposing a general
// purpose URL type. Request-target parsing is listed as an external
// collaborator in the engine's spec (§6d) and not its own module budget;
// this is the reference implementation, built on net/url which already
// covers origin-form, absolute-form, and authority-form (CONNECT) targets.
package urlx

import (
	"fmt"
	"net/url"
	"strings"
)

// URL is the opaque request-target handle the engine attaches to a parsed
// Request. Only Host/Port/Path/Query are consumed by the engine itself;
// everything else exists for the embedder's benefit (e.g. building the
// outbound request when forwarding).
type URL struct {
	Scheme string
	Host   string
	Port   string
	Path   string
	Query  string
	// Raw is the request-target exactly as it appeared on the wire.
	Raw string
}

// Parse tokenizes a request-target. It accepts the three forms HTTP/1.x
// requests actually use:
//
//   - origin-form:    /path?query
//   - absolute-form:  http://host:port/path?query   (proxy requests)
//   - authority-form:  host:port                     (CONNECT)
func Parse(target string) (*URL, error) {
	if target == "" {
		return nil, fmt.Errorf("urlx: empty request-target")
	}

	if target == "*" {
		return &URL{Path: "*", Raw: target}, nil
	}

	// authority-form: any target with no "://" scheme separator and no
	// leading slash is taken as host[:port] — this is what CONNECT
	// host:port looks like. The port is optional here.
	if target[0] != '/' && !strings.Contains(target, "://") {
		host, port, ok := splitHostPort(target)
		if !ok {
			return nil, fmt.Errorf("urlx: malformed authority-form target %q", target)
		}
		return &URL{Host: host, Port: port, Raw: target}, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("urlx: %w", err)
	}

	out := &URL{
		Scheme: u.Scheme,
		Path:   u.Path,
		Query:  u.RawQuery,
		Raw:    target,
	}
	if u.Host != "" {
		host, port, ok := splitHostPort(u.Host)
		if !ok {
			host, port = u.Host, ""
		}
		out.Host, out.Port = host, port
	}
	if out.Path == "" {
		out.Path = "/"
	}
	return out, nil
}

func splitHostPort(hostport string) (host, port string, ok bool) {
	idx := strings.LastIndexByte(hostport, ':')
	if idx == -1 {
		return hostport, "", true
	}
	// guard against bracketed IPv6 literals without a port, e.g. "[::1]"
	if strings.Contains(hostport[idx:], "]") {
		return hostport, "", true
	}
	return hostport[:idx], hostport[idx+1:], true
}

// String reconstructs the path+query portion suitable for re-emitting an
// origin-form request-target when writing an outbound request.
func (u *URL) String() string {
	if u == nil {
		return "/"
	}
	if u.Path == "*" {
		return "*"
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	if u.Query != "" {
		return p + "?" + u.Query
	}
	return p
}
