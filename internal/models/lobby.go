// internal/models/lobby.go
package models

import "time"

// DefaultLobbyTimeout is how long a lobby may stay inactive before the janitor removes it.
const DefaultLobbyTimeout = 24 * time.Hour

// Lobby represents one record of the lobbies collection as far as the janitor cares about it.
// Gameplay code owns every other field.
type Lobby struct {
	ID string `json:"id"`

	// LastActivity is nil when the stored field is absent or not a recognized timestamp.
	LastActivity *time.Time `json:"lastActivity,omitempty"`
}

// NewLobby builds a Lobby from its id and the raw lastActivity value read from the store.
func NewLobby(id string, rawLastActivity interface{}) Lobby {
	return Lobby{ID: id, LastActivity: ActivityTime(rawLastActivity)}
}

// Expired reports whether the lobby has been inactive for strictly longer than timeout.
// Comparison is done on millisecond precision; a lobby without activity never expires.
func (l Lobby) Expired(now time.Time, timeout time.Duration) bool {
	if l.LastActivity == nil {
		return false
	}
	return now.UnixMilli()-l.LastActivity.UnixMilli() > timeout.Milliseconds()
}
