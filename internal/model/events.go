package model

// Event types broadcast to every member of a room
const (
	EventMembershipChanged = "membership-changed"
	EventSessionStarted    = "session-started"
	EventNewQuestion       = "new-question"
	EventSessionEnded      = "session-ended"
)

// NewQuestionEvent announces the round's question and who answers it
type NewQuestionEvent struct {
	Question       Question `json:"question"`
	SelectedPlayer string   `json:"selectedPlayer"`
	Index          int      `json:"index"`
	Total          int      `json:"total"`
}

// SessionStartedEvent is sent once the question set is fixed
type SessionStartedEvent struct {
	Code  string `json:"code"`
	Total int    `json:"total"`
}

// SessionEndedEvent reports why a session ended
type SessionEndedEvent struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Reasons carried by SessionEndedEvent
const (
	EndReasonExhausted = "questions_exhausted"
	EndReasonNoPlayers = "no_active_players"
	EndReasonEmpty     = "room_empty"
	EndReasonIdle      = "idle_timeout"
	EndReasonDeleted   = "deleted"
)
