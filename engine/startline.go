package engine

import "strings"

// splitRequestLine tokenizes a client-role start line into exactly three
// space-delimited tokens: method, request-target, version (§4.2).
func splitRequestLine(line []byte) (method, target, version string, ok bool) {
	s := string(line)
	fields := strings.SplitN(s, " ", 3)
	if len(fields) != 3 {
		return "", "", "", false
	}
	if fields[0] == "" || fields[1] == "" || fields[2] == "" {
		return "", "", "", false
	}
	return fields[0], fields[1], fields[2], true
}

// splitStatusLine tokenizes a server-role start line, limiting to the
// first two splits so the reason phrase retains embedded spaces (§4.2).
func splitStatusLine(line []byte) (version, status, reason string, ok bool) {
	s := string(line)
	fields := strings.SplitN(s, " ", 3)
	if len(fields) != 3 {
		return "", "", "", false
	}
	if fields[0] == "" || len(fields[1]) != 3 {
		return "", "", "", false
	}
	return fields[0], fields[1], fields[2], true
}

// parseVersion validates an "HTTP/x.y" token, requiring the suffix to be
// exactly "1.0" or "1.1" (§4.2).
func parseVersion(tok string) (Version, bool) {
	const prefix = "HTTP/"
	if len(tok) != len(prefix)+3 || !strings.EqualFold(tok[:len(prefix)], prefix) {
		return Version{}, false
	}
	switch tok[len(prefix):] {
	case "1.0":
		return version10, true
	case "1.1":
		return version11, true
	default:
		return Version{}, false
	}
}
