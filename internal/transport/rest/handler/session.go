package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"partyroom/internal/model"
	"partyroom/internal/service"
	"partyroom/internal/transport/rest/middleware"
)

// SessionHandler gives admins a view of live sessions
type SessionHandler struct {
	registry *service.Registry
	log      *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry *service.Registry, log *slog.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, log: log}
}

// SessionSummary is one row of the admin session list
type SessionSummary struct {
	Code             string              `json:"code"`
	Status           model.SessionStatus `json:"status"`
	Players          int                 `json:"players"`
	ConnectedPlayers int                 `json:"connectedPlayers"`
	QuestionIndex    int                 `json:"questionIndex"`
	TotalQuestions   int                 `json:"totalQuestions"`
	Selection        model.SelectionMode `json:"selection"`
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.registry.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summaries := lo.Map(sessions, func(s *model.Session, _ int) SessionSummary {
		return SessionSummary{
			Code:             s.Code,
			Status:           s.Status,
			Players:          len(s.Players),
			ConnectedPlayers: lo.CountBy(s.Players, func(p model.Player) bool { return p.Connected() }),
			QuestionIndex:    s.CurrentQuestionIndex,
			TotalQuestions:   len(s.Questions),
			Selection:        s.Config.Selection,
		}
	})
	writeJSON(w, http.StatusOK, summaries)
}

// Get handles GET /v1/sessions/{code}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.Get(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Delete handles DELETE /v1/sessions/{code}
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if err := h.registry.Delete(r.Context(), code); err != nil {
		writeServiceError(w, err)
		return
	}
	h.log.Info("session deleted by admin", "code", code, "admin", middleware.GetAdminID(r.Context()))
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAll handles DELETE /v1/sessions
func (h *SessionHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.registry.DeleteAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	h.log.Info("sessions bulk deleted", "count", n, "admin", middleware.GetAdminID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}
