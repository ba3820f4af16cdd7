package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
)

const sendBufferSize = 256

// Connection is one live WebSocket client
type Connection struct {
	ID   string
	Send chan []byte
}

// NewConnection creates a connection with a buffered outbound queue
func NewConnection(id string) *Connection {
	return &Connection{
		ID:   id,
		Send: make(chan []byte, sendBufferSize),
	}
}

type subscription struct {
	roomCode string
	connID   string
}

type roomMessage struct {
	roomCode string
	data     []byte
}

// Hub fans room events out to subscribed connections. All state is owned by
// the run goroutine; control channels are unbuffered so a call that returned
// has been applied before any later call.
type Hub struct {
	conns map[string]*Connection
	rooms map[string]map[string]*Connection // roomCode -> connID -> conn

	register    chan *Connection
	unregister  chan *Connection
	subscribe   chan subscription
	unsubscribe chan subscription
	broadcast   chan roomMessage
	roomSize    chan chan map[string]int
	done        chan struct{}
	stopOnce    sync.Once

	log *slog.Logger
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		conns:       make(map[string]*Connection),
		rooms:       make(map[string]map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		broadcast:   make(chan roomMessage),
		roomSize:    make(chan chan map[string]int),
		done:        make(chan struct{}),
		log:         log,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return

		case conn := <-h.register:
			h.conns[conn.ID] = conn
			h.log.Debug("connection registered", "conn", conn.ID)

		case conn := <-h.unregister:
			if existing, ok := h.conns[conn.ID]; !ok || existing != conn {
				continue
			}
			delete(h.conns, conn.ID)
			for code, members := range h.rooms {
				delete(members, conn.ID)
				if len(members) == 0 {
					delete(h.rooms, code)
				}
			}
			close(conn.Send)
			h.log.Debug("connection unregistered", "conn", conn.ID)

		case sub := <-h.subscribe:
			conn, ok := h.conns[sub.connID]
			if !ok {
				continue
			}
			if h.rooms[sub.roomCode] == nil {
				h.rooms[sub.roomCode] = make(map[string]*Connection)
			}
			h.rooms[sub.roomCode][sub.connID] = conn

		case sub := <-h.unsubscribe:
			if members, ok := h.rooms[sub.roomCode]; ok {
				delete(members, sub.connID)
				if len(members) == 0 {
					delete(h.rooms, sub.roomCode)
				}
			}

		case msg := <-h.broadcast:
			for id, conn := range h.rooms[msg.roomCode] {
				select {
				case conn.Send <- msg.data:
				default:
					h.log.Warn("dropping message for slow connection", "conn", id, "room", msg.roomCode)
				}
			}

		case reply := <-h.roomSize:
			sizes := make(map[string]int, len(h.rooms))
			for code, members := range h.rooms {
				sizes[code] = len(members)
			}
			reply <- sizes
		}
	}
}

// send hands v to the run loop unless the hub has stopped
func send[T any](h *Hub, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-h.done:
		return false
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	send(h, h.register, conn)
}

// Unregister removes a connection from the hub and every room, then closes
// its send queue
func (h *Hub) Unregister(conn *Connection) {
	send(h, h.unregister, conn)
}

// Subscribe adds a registered connection to a room (implements service.Broadcaster)
func (h *Hub) Subscribe(roomCode, connID string) {
	send(h, h.subscribe, subscription{roomCode: roomCode, connID: connID})
}

// Unsubscribe removes a connection from a room (implements service.Broadcaster)
func (h *Hub) Unsubscribe(roomCode, connID string) {
	send(h, h.unsubscribe, subscription{roomCode: roomCode, connID: connID})
}

// BroadcastToRoom sends a message to every connection in a room (implements service.Broadcaster)
func (h *Hub) BroadcastToRoom(roomCode string, msgType string, payload interface{}) {
	data, err := encodeMessage(MessageType(msgType), payload)
	if err != nil {
		h.log.Error("encode broadcast", "type", msgType, "room", roomCode, "error", err)
		return
	}
	send(h, h.broadcast, roomMessage{roomCode: roomCode, data: data})
}

// RoomSizes reports how many connections each room has
func (h *Hub) RoomSizes() map[string]int {
	reply := make(chan map[string]int, 1)
	if !send(h, h.roomSize, reply) {
		return map[string]int{}
	}
	return <-reply
}

// Done is closed once the hub has been stopped
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Stop shuts the hub down. Write loops watch Done and close their sockets.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func encodeMessage(t MessageType, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: t, Payload: raw})
}
