package model

import (
	"slices"
	"time"
)

type SessionStatus string

const (
	SessionLobby  SessionStatus = "lobby"
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// SelectionMode picks the question selection policy for a session
type SelectionMode string

const (
	// SelectionBalanced draws evenly across rate categories and shuffles the result
	SelectionBalanced SelectionMode = "balanced"
	// SelectionProgressive draws like balanced but orders by ascending rate
	SelectionProgressive SelectionMode = "progressive"
	// SelectionTag puts questions matching the session tag first
	SelectionTag SelectionMode = "tag"
)

// Session tags accepted by the tag-priority selection
const (
	SessionTagFriends = "friends"
	SessionTagRandom  = "random"
)

// SessionConfig is fixed when the session is created
type SessionConfig struct {
	Selection        SelectionMode `json:"selection" bson:"selection" validate:"omitempty,oneof=balanced progressive tag"`
	Tag              string        `json:"tag,omitempty" bson:"tag,omitempty" validate:"omitempty,oneof=friends random none"`
	QuestionsPerRate int           `json:"questionsPerRate,omitempty" bson:"questionsPerRate,omitempty" validate:"omitempty,min=1,max=100"`
}

// GeoPoint is an optional location a room can be anchored to
type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" bson:"lng" validate:"min=-180,max=180"`
}

// Session is one game room, addressed by Code
type Session struct {
	Code                 string        `json:"code" bson:"code"`
	Players              []Player      `json:"players" bson:"players"`
	Questions            []Question    `json:"questions" bson:"questions"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	CurrentPlayerIndex   int           `json:"currentPlayerIndex" bson:"currentPlayerIndex"`
	Status               SessionStatus `json:"status" bson:"status"`
	CreatorConnectionID  string        `json:"creatorConnectionId" bson:"creatorConnectionId"`
	AnchorLocation       *GeoPoint     `json:"anchorLocation,omitempty" bson:"anchorLocation,omitempty"`
	Config               SessionConfig `json:"config" bson:"config"`
	CreatedAt            time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt            time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy that shares no slices with s
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Players = slices.Clone(s.Players)
	c.Questions = slices.Clone(s.Questions)
	if s.AnchorLocation != nil {
		loc := *s.AnchorLocation
		c.AnchorLocation = &loc
	}
	return &c
}

// PlayerByName returns the index of the named player or -1
func (s *Session) PlayerByName(name string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.Name == name })
}

// PlayerByConnection returns the index of the player on connID or -1
func (s *Session) PlayerByConnection(connID string) int {
	if connID == "" {
		return -1
	}
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ConnectionID == connID })
}

// CurrentQuestion returns the question at the current index, if any
func (s *Session) CurrentQuestion() (Question, bool) {
	if s.CurrentQuestionIndex < 0 || s.CurrentQuestionIndex >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.CurrentQuestionIndex], true
}

// PlayerView is what room members see of each other
type PlayerView struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Connected bool   `json:"connected"`
}

// SessionSnapshot is the membership view broadcast to a room. It leaves out
// connection ids and the upcoming questions.
type SessionSnapshot struct {
	Code                 string        `json:"code"`
	Status               SessionStatus `json:"status"`
	Players              []PlayerView  `json:"players"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions"`
	Config               SessionConfig `json:"config"`
	AnchorLocation       *GeoPoint     `json:"anchorLocation,omitempty"`
}

// Snapshot builds the room-visible view of s
func (s *Session) Snapshot() SessionSnapshot {
	players := make([]PlayerView, len(s.Players))
	for i, p := range s.Players {
		players[i] = PlayerView{Name: p.Name, Score: p.Score, Connected: p.Connected()}
	}
	var anchor *GeoPoint
	if s.AnchorLocation != nil {
		loc := *s.AnchorLocation
		anchor = &loc
	}
	return SessionSnapshot{
		Code:                 s.Code,
		Status:               s.Status,
		Players:              players,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       len(s.Questions),
		Config:               s.Config,
		AnchorLocation:       anchor,
	}
}
