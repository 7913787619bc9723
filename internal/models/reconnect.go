package models

// Reconnect is a rejoin token pointing at a lobby by id. The reference is weak:
// nothing guarantees the lobby still exists.
type Reconnect struct {
	ID      string `json:"id"`
	LobbyID string `json:"lobbyId,omitempty"`
}

// NewReconnect builds a Reconnect from its id and the raw lobbyId value read from the store.
func NewReconnect(id string, rawLobbyID interface{}) Reconnect {
	return Reconnect{ID: id, LobbyID: LobbyRef(rawLobbyID)}
}

// HasLobby is false for tokens that carry no usable lobby reference.
func (r Reconnect) HasLobby() bool {
	return r.LobbyID != ""
}
