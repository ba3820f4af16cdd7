//go:generate go run go.uber.org/mock/mockgen -source=broadcaster.go -destination=../mocks/mock_broadcaster.go -package=mocks

package service

// Broadcaster delivers room events to every connection subscribed to the room
// (implemented by the WebSocket hub; declared here to avoid an import cycle).
type Broadcaster interface {
	Subscribe(roomCode, connID string)
	Unsubscribe(roomCode, connID string)
	BroadcastToRoom(roomCode string, msgType string, payload interface{})
}
