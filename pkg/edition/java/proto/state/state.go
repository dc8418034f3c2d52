// Package state contains the protocol phases of a Java edition connection.
package state

import "fmt"

// State is the protocol phase of a connection.
// It decides which packet ids are meaningful and is changed by
// packet handlers only.
type State int

const (
	// HandshakeState is the initial state. The handshake's intent moves
	// the connection to StatusState or LoginState.
	HandshakeState State = iota
	// StatusState is the server list ping state. The connection is closed
	// after the ping was answered.
	StatusState
	// LoginState is the authentication state.
	LoginState
	// TransferState is entered by clients transferred from another server,
	// they continue like in LoginState.
	TransferState
	// ConfigState is the configuration state between login and play.
	ConfigState
	// PlayState is the game state.
	PlayState
)

var names = [...]string{
	HandshakeState: "Handshake",
	StatusState:    "Status",
	LoginState:     "Login",
	TransferState:  "Transfer",
	ConfigState:    "Config",
	PlayState:      "Play",
}

// Valid reports whether s is a known state.
func (s State) Valid() bool { return s >= 0 && int(s) < len(names) }

// String implements fmt.Stringer.
func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return names[s]
}

// Parse returns the state named name.
func Parse(name string) (State, error) {
	for s, n := range names {
		if n == name {
			return State(s), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}
