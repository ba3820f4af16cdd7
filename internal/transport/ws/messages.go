package ws

import (
	"encoding/json"

	"partyroom/internal/model"
)

// MessageType names a client request or a server message
type MessageType string

// Client requests
const (
	MsgCreateSession   MessageType = "create-session"
	MsgJoinSession     MessageType = "join-session"
	MsgStartSession    MessageType = "start-session"
	MsgAdvanceSession  MessageType = "advance-session"
	MsgCheckMembership MessageType = "check-membership"
	MsgLeaveSession    MessageType = "leave-session"
)

// Server messages. Room broadcasts reuse the model event names.
const (
	MsgAck               MessageType = "ack"
	MsgMembershipChanged MessageType = model.EventMembershipChanged
	MsgSessionStarted    MessageType = model.EventSessionStarted
	MsgNewQuestion       MessageType = model.EventNewQuestion
	MsgSessionEnded      MessageType = model.EventSessionEnded
)

// Request is the client envelope
type Request struct {
	Type      MessageType     `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
}

// Message is a room broadcast
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Ack answers exactly one request and goes only to the connection that sent it
type Ack struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"requestId"`
	OK        bool        `json:"ok"`
	Reason    string      `json:"reason,omitempty"`
	Error     string      `json:"error,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// CreateSessionPayload opens a new room with the sender as its first player
type CreateSessionPayload struct {
	PlayerName string               `json:"playerName" validate:"required,max=32"`
	Config     *model.SessionConfig `json:"config,omitempty"`
	Anchor     *model.GeoPoint      `json:"anchor,omitempty"`
}

type JoinSessionPayload struct {
	Code       string `json:"code" validate:"required,numeric,len=6"`
	PlayerName string `json:"playerName" validate:"required,max=32"`
}

// CodePayload carries only the room code
type CodePayload struct {
	Code string `json:"code" validate:"required,numeric,len=6"`
}

// CreateSessionResult is the ack data for create-session
type CreateSessionResult struct {
	Code    string                `json:"code"`
	Session model.SessionSnapshot `json:"session"`
}

// MembershipResult is the ack data for check-membership
type MembershipResult struct {
	Member bool `json:"member"`
}

// payloadFor returns an empty payload value for a request type, or nil when
// the type is unknown
func payloadFor(t MessageType) interface{} {
	switch t {
	case MsgCreateSession:
		return &CreateSessionPayload{}
	case MsgJoinSession:
		return &JoinSessionPayload{}
	case MsgStartSession, MsgAdvanceSession, MsgCheckMembership, MsgLeaveSession:
		return &CodePayload{}
	default:
		return nil
	}
}
