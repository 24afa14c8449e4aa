package header

import "bytes"

// Status codes returned by Parse, matching the engine's external header
// parser contract: -1 malformed, 0 need more data, 1 complete.
const (
	StatusMalformed = -1
	StatusNeedMore  = 0
	StatusComplete  = 1
)

// MaxLineSize bounds a single header line to guard against unbounded memory
// growth while headers are still incomplete.
const MaxLineSize = 8192

// Parse consumes as many complete "Name: Value\r\n" lines from in as are
// available, appending each to hl, until it either finds the blank line
// that terminates the header block (StatusComplete, consumed is the byte
// offset just past that blank line) or runs out of complete lines
// (StatusNeedMore, consumed is the offset just past the last complete line
// parsed so the caller can drop already-processed bytes from its buffer).
//
// Parse never backtracks: once it has added a header to hl it will not be
// re-parsed on a subsequent call with the remaining bytes.
func Parse(hl *List, in []byte) (consumed int, status int) {
	pos := 0
	for {
		if pos < len(in) && in[pos] == '\r' {
			if pos+1 >= len(in) {
				return pos, StatusNeedMore
			}
			if in[pos+1] != '\n' {
				return 0, StatusMalformed
			}
			return pos + 2, StatusComplete
		}

		lineEnd := bytes.Index(in[pos:], crlf)
		if lineEnd == -1 {
			if len(in)-pos > MaxLineSize {
				return 0, StatusMalformed
			}
			return pos, StatusNeedMore
		}
		lineEnd += pos
		line := in[pos:lineEnd]

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return 0, StatusMalformed
		}
		name := line[:colon]
		if bytes.IndexByte(name, ' ') != -1 || bytes.IndexByte(name, '\t') != -1 {
			return 0, StatusMalformed
		}
		value := trimOWS(line[colon+1:])

		hl.Add(string(name), string(value))
		pos = lineEnd + 2
	}
}

var crlf = []byte("\r\n")

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// Dump serializes hl as "Name: Value\r\n" lines, appended to out, without
// the trailing blank line (the caller writes that once after the body of
// the status/request line plus headers).
func Dump(hl *List, out []byte) []byte {
	hl.VisitAll(func(name, value string) bool {
		out = append(out, name...)
		out = append(out, ':', ' ')
		out = append(out, value...)
		out = append(out, '\r', '\n')
		return true
	})
	return out
}
