package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"partyroom/internal/model"
	"partyroom/internal/repository"
	"partyroom/internal/service"
	"partyroom/internal/transport/rest/handler"
	"partyroom/internal/transport/ws"
)

type testAPI struct {
	t        *testing.T
	router   http.Handler
	registry *service.Registry
	token    string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	hub := ws.NewHub(log)
	t.Cleanup(hub.Stop)

	registry := service.NewRegistry(repository.NewMemorySessionRepo(), model.SessionConfig{}, log)
	registry.SetBroadcaster(hub)
	questions := service.NewQuestionService(repository.NewMemoryQuestionRepo(), nil, log)

	api := &testAPI{
		t: t,
		router: NewRouter(&Container{
			AuthService:  service.NewAuthService("admin", "hunter2", "test-secret"),
			Questions:    questions,
			Registry:     registry,
			Orchestrator: service.NewOrchestrator(registry, questions, service.PolicyRemove, log),
			WSHub:        hub,
			Log:          log,
		}),
		registry: registry,
	}

	rec := api.do(http.MethodPost, "/v1/auth/login", model.LoginRequest{Username: "admin", Password: "hunter2"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login model.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	api.token = login.Token
	return api
}

func (a *testAPI) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Login(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	rec := api.do(http.MethodPost, "/v1/auth/login", model.LoginRequest{Username: "admin", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/v1/auth/login", map[string]string{"username": "admin"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for _, token := range []string{"", "garbage"} {
		api.token = token
		rec := api.do(http.MethodGet, "/v1/questions", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodDelete, "/v1/sessions", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestRouter_QuestionCRUD(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/v1/questions", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`[]`, rec.Body.String())

	rec = api.do(http.MethodPost, "/v1/questions", model.Question{Text: "Best road trip snack?", Rate: 1, Tag: model.TagFriend})
	req.Equal(http.StatusCreated, rec.Code)
	var created model.Question
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	req.NotEmpty(created.ID)

	rec = api.do(http.MethodPost, "/v1/questions", model.Question{Text: "out of range", Rate: 6})
	req.Equal(http.StatusBadRequest, rec.Code)

	created.Rate = 4
	rec = api.do(http.MethodPut, "/v1/questions/"+created.ID, created)
	req.Equal(http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/v1/questions", nil)
	var list []model.Question
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &list))
	req.Len(list, 1)
	req.Equal(4, list[0].Rate)

	rec = api.do(http.MethodPut, "/v1/questions/missing", created)
	req.Equal(http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/questions/"+created.ID, nil)
	req.Equal(http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/questions/"+created.ID, nil)
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestRouter_Sessions(t *testing.T) {
	req := require.New(t)
	api := newTestAPI(t)
	ctx := context.Background()

	a, err := api.registry.Create(ctx, "", "Ana", model.SessionConfig{}, nil)
	req.NoError(err)
	_, err = api.registry.Create(ctx, "", "Bo", model.SessionConfig{Selection: model.SelectionTag, Tag: "friends"}, nil)
	req.NoError(err)

	rec := api.do(http.MethodGet, "/v1/sessions", nil)
	req.Equal(http.StatusOK, rec.Code)
	var summaries []handler.SessionSummary
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &summaries))
	req.Len(summaries, 2)

	rec = api.do(http.MethodGet, "/v1/sessions/"+a.Code, nil)
	req.Equal(http.StatusOK, rec.Code)
	var got model.Session
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	req.Equal("Ana", got.Players[0].Name)

	rec = api.do(http.MethodGet, "/v1/sessions/000000", nil)
	req.Equal(http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/sessions/"+a.Code, nil)
	req.Equal(http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, "/v1/sessions", nil)
	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"deleted":1}`, rec.Body.String())

	list, err := api.registry.List(ctx)
	req.NoError(err)
	req.Empty(list)
}

func TestRouter_CORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	api.token = ""

	rec := api.do(http.MethodOptions, "/v1/questions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
