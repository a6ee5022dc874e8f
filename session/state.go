package session

// Role is the connection role. Only the client side of the protocol is
// implemented.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// State tracks a session's progress through the protocol. It only moves
// forward along Open, ShookHands, Joined, Synced, except that any state
// can drop into the absorbing Error state.
type State int

const (
	// StateOpen: socket connected, nothing exchanged yet.
	StateOpen State = iota

	// StateShookHands: the TLS upgrade completed (or none was requested).
	StateShookHands

	// StateJoined: login accepted, the sync catalog is incoming.
	StateJoined

	// StateSynced: the sync catalog has been fully received.
	StateSynced

	// StateError: terminal fault. No further protocol processing happens.
	StateError
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "Open"
	case StateShookHands:
		return "ShookHands"
	case StateJoined:
		return "Joined"
	case StateSynced:
		return "Synced"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}
