package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"partyroom/internal/model"
	"partyroom/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	requestTimeout = 10 * time.Second
)

var errUnknownType = errors.New("unknown request type")

// Handler serves the game WebSocket endpoint
type Handler struct {
	hub      *Hub
	registry *service.Registry
	orch     *service.Orchestrator
	validate *validator.Validate
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler creates a new WebSocket handler. An empty origin list or "*"
// accepts any origin.
func NewHandler(hub *Hub, registry *service.Registry, orch *service.Orchestrator, allowedOrigins []string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		hub:      hub,
		registry: registry,
		orch:     orch,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}

// client is the per-connection state owned by its read loop
type client struct {
	conn  *Connection
	rooms map[string]struct{}
}

// ServeWS handles GET /v1/ws
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn:  NewConnection(uuid.NewString()),
		rooms: make(map[string]struct{}),
	}
	h.hub.Register(c.conn)
	h.log.Info("websocket connected", "conn", c.conn.ID, "remote", r.RemoteAddr)

	go h.writePump(wsConn, c.conn)
	go h.readPump(wsConn, c)
}

func (h *Handler) readPump(wsConn *websocket.Conn, c *client) {
	defer func() {
		h.disconnect(c)
		h.hub.Unregister(c.conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", "conn", c.conn.ID, "error", err)
			}
			return
		}
		h.handle(c, data)
	}
}

func (h *Handler) disconnect(c *client) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	for code := range c.rooms {
		if err := h.orch.Disconnect(ctx, code, c.conn.ID); err != nil {
			h.log.Error("disconnect cleanup failed", "conn", c.conn.ID, "code", code, "error", err)
		}
	}
	h.log.Info("websocket disconnected", "conn", c.conn.ID, "rooms", len(c.rooms))
}

// handle decodes, validates and dispatches one request, then acks it
func (h *Handler) handle(c *client, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		h.ack(c.conn, Ack{Reason: service.ReasonInvalidRequest, Error: "malformed envelope"})
		return
	}

	payload := payloadFor(req.Type)
	if payload == nil {
		h.ack(c.conn, Ack{RequestID: req.RequestID, Reason: service.ReasonInvalidRequest, Error: errUnknownType.Error()})
		return
	}
	if err := h.decode(req.Payload, payload); err != nil {
		h.ack(c.conn, Ack{RequestID: req.RequestID, Reason: service.ReasonInvalidRequest, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	result, err := h.dispatch(ctx, c, req.Type, payload)
	if err != nil {
		reason := service.Reason(err)
		if reason == service.ReasonInternal || reason == service.ReasonStorage {
			h.log.Error("request failed", "conn", c.conn.ID, "type", req.Type, "error", err)
		}
		h.ack(c.conn, Ack{RequestID: req.RequestID, Reason: reason, Error: err.Error()})
		return
	}
	h.ack(c.conn, Ack{RequestID: req.RequestID, OK: true, Data: result})
}

func (h *Handler) decode(raw json.RawMessage, into interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := h.validate.Struct(into); err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}

func (h *Handler) dispatch(ctx context.Context, c *client, t MessageType, payload interface{}) (interface{}, error) {
	connID := c.conn.ID

	switch p := payload.(type) {
	case *CreateSessionPayload:
		var cfg model.SessionConfig
		if p.Config != nil {
			cfg = *p.Config
		}
		s, err := h.registry.Create(ctx, connID, p.PlayerName, cfg, p.Anchor)
		if err != nil {
			return nil, err
		}
		c.rooms[s.Code] = struct{}{}
		return CreateSessionResult{Code: s.Code, Session: s.Snapshot()}, nil

	case *JoinSessionPayload:
		s, err := h.orch.Join(ctx, p.Code, p.PlayerName, connID)
		if err != nil {
			return nil, err
		}
		c.rooms[s.Code] = struct{}{}
		return s.Snapshot(), nil

	case *CodePayload:
		switch t {
		case MsgStartSession:
			round, err := h.orch.Start(ctx, p.Code, connID)
			if err != nil {
				return nil, err
			}
			return round, nil
		case MsgAdvanceSession:
			round, err := h.orch.Advance(ctx, p.Code)
			if err != nil {
				return nil, err
			}
			return round, nil
		case MsgCheckMembership:
			member, err := h.orch.CheckStatus(ctx, p.Code, connID)
			if err != nil {
				return nil, err
			}
			return MembershipResult{Member: member}, nil
		case MsgLeaveSession:
			if err := h.orch.Leave(ctx, p.Code, connID); err != nil {
				return nil, err
			}
			delete(c.rooms, p.Code)
			return nil, nil
		}
	}
	return nil, errUnknownType
}

func (h *Handler) ack(conn *Connection, a Ack) {
	a.Type = MsgAck
	data, err := json.Marshal(a)
	if err != nil {
		h.log.Error("encode ack", "conn", conn.ID, "error", err)
		return
	}
	select {
	case conn.Send <- data:
	default:
		h.log.Warn("dropping ack for slow connection", "conn", conn.ID, "requestId", a.RequestID)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-h.hub.Done():
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			wsConn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
