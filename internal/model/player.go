package model

import "time"

// Player is a participant in a session. An empty ConnectionID means the
// player is disconnected but their seat is retained.
type Player struct {
	Name         string    `json:"name" bson:"name"`
	Score        int       `json:"score" bson:"score"`
	ConnectionID string    `json:"connectionId,omitempty" bson:"connectionId,omitempty"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Connected reports whether the player has a live connection
func (p Player) Connected() bool {
	return p.ConnectionID != ""
}
