package engine

// Role fixes which side of the conversation a Connection faces, and
// therefore which start line it parses and which it emits.
type Role uint8

const (
	// RoleClientEndpoint: the peer is an HTTP client. The Connection
	// parses requests and emits responses.
	RoleClientEndpoint Role = iota
	// RoleServerEndpoint: the peer is an HTTP server. The Connection
	// emits requests and parses responses.
	RoleServerEndpoint
)

func (r Role) String() string {
	switch r {
	case RoleClientEndpoint:
		return "client-endpoint"
	case RoleServerEndpoint:
		return "server-endpoint"
	default:
		return "unknown-role"
	}
}

// Phase is the top-level state machine position of a Connection (§4.1).
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseReadFirstLine
	PhaseReadHeaders
	PhaseReadBody
	PhaseMangled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseReadFirstLine:
		return "read-firstline"
	case PhaseReadHeaders:
		return "read-headers"
	case PhaseReadBody:
		return "read-body"
	case PhaseMangled:
		return "mangled"
	default:
		return "unknown-phase"
	}
}

// transferCoding is the body-length discipline computed at header-complete
// (§4.3).
type transferCoding uint8

const (
	transferIdentity transferCoding = iota
	transferChunked
)

// chunkSub is the chunked body's inner sub-state (§4.4).
type chunkSub uint8

const (
	chunkNeedLength chunkSub = iota
	chunkDrainBody
	chunkNeedTerminator
)
