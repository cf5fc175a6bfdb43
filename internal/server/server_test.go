package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"allersim/internal/config"
	"allersim/internal/session"
	"allersim/pkg/types"
)

type captureStore struct {
	saved []*session.Record
}

func (s *captureStore) Save(record *session.Record) error {
	s.saved = append(s.saved, record)
	return nil
}

func newTestServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()
	cfg := config.Default()
	// Point at a missing scenario so the loader serves the fallback menu.
	cfg.ScenarioPath = t.TempDir() + "/missing.json"
	opts = append([]ServerOption{WithRegistry(prometheus.NewRegistry())}, opts...)
	return New(cfg, opts...)
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func startSession(t *testing.T, srv *Server, body map[string]any) startSessionResponse {
	t.Helper()
	rec := postJSON(t, srv.Handler(), "/api/sessions", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp startSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp
}

func TestStartSession(t *testing.T) {
	srv := newTestServer(t)

	resp := startSession(t, srv, map[string]any{
		"player_name": "Maya",
		"age":         11,
		"allergies":   []string{"peanuts"},
		"level":       "beginner",
	})

	assert.Equal(t, "The Corner Bistro", resp.Restaurant)
	assert.Equal(t, "beginner", resp.Level)
	assert.Contains(t, resp.Greeting, "The Corner Bistro")
}

func TestStartSessionRequiresPlayerName(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/api/sessions", map[string]any{"level": "beginner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartSessionDefaultsLevelFromConfig(t *testing.T) {
	srv := newTestServer(t)

	resp := startSession(t, srv, map[string]any{"player_name": "Maya"})
	assert.Equal(t, "beginner", resp.Level)
}

func TestTurnUnknownSession(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/api/sessions/nope/turns", map[string]any{"input": "hi"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFullSessionFlow(t *testing.T) {
	store := &captureStore{}
	srv := newTestServer(t, WithStore(store))

	resp := startSession(t, srv, map[string]any{
		"player_name": "Maya",
		"age":         11,
		"allergies":   []string{"peanuts"},
		"level":       "beginner",
	})

	turnsPath := fmt.Sprintf("/api/sessions/%s/turns", resp.SessionID)
	rec := postJSON(t, srv.Handler(), turnsPath, map[string]any{"input": "I'm allergic to peanuts"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var turn turnResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &turn))
	assert.Equal(t, 1, turn.TurnNumber)
	assert.Contains(t, turn.Reply, "kitchen")

	rec = postJSON(t, srv.Handler(), turnsPath, map[string]any{"input": "I'll have the garden salad"})
	require.Equal(t, http.StatusOK, rec.Code)

	finishPath := fmt.Sprintf("/api/sessions/%s/finish", resp.SessionID)
	rec = postJSON(t, srv.Handler(), finishPath, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var record session.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	require.NotNil(t, record.Assessment)
	assert.Equal(t, resp.SessionID, record.ID)
	assert.Equal(t, 80, record.Assessment.TotalScore)
	assert.True(t, record.Assessment.Passed)
	assert.NotEmpty(t, record.Feedback.Paragraph)

	require.Len(t, store.saved, 1)
	assert.Equal(t, resp.SessionID, store.saved[0].ID)

	// Turns after finish are rejected, but finish stays idempotent.
	rec = postJSON(t, srv.Handler(), turnsPath, map[string]any{"input": "one more thing"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = postJSON(t, srv.Handler(), finishPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type slowReplier struct {
	delay time.Duration
}

func (r *slowReplier) Generate(ctx context.Context, history []types.ConversationTurn, menuText string, profile types.PlayerProfile, userInput string) (string, []string, error) {
	time.Sleep(r.delay)
	return "One moment please.", nil, nil
}

func TestConcurrentTurnsAreSerialized(t *testing.T) {
	srv := newTestServer(t, WithReplyProducer(&slowReplier{delay: 20 * time.Millisecond}))

	resp := startSession(t, srv, map[string]any{
		"player_name": "Maya",
		"allergies":   []string{"peanuts"},
	})
	turnsPath := fmt.Sprintf("/api/sessions/%s/turns", resp.SessionID)

	const turns = 8
	var wg sync.WaitGroup
	codes := make([]int, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := postJSON(t, srv.Handler(), turnsPath, map[string]any{
				"input": fmt.Sprintf("question number %d?", i),
			})
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "turn %d", i)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.SessionID, nil)
	got := httptest.NewRecorder()
	srv.Handler().ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var state struct {
		Turns []struct {
			Number int `json:"number"`
		} `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &state))
	require.Len(t, state.Turns, turns)
	for i, turn := range state.Turns {
		assert.Equal(t, i+1, turn.Number)
	}
}

func TestFinishEmptySession(t *testing.T) {
	srv := newTestServer(t)

	resp := startSession(t, srv, map[string]any{"player_name": "Maya"})
	rec := postJSON(t, srv.Handler(), fmt.Sprintf("/api/sessions/%s/finish", resp.SessionID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetSessionState(t *testing.T) {
	srv := newTestServer(t)

	resp := startSession(t, srv, map[string]any{
		"player_name": "Maya",
		"allergies":   []string{"dairy"},
	})

	turnsPath := fmt.Sprintf("/api/sessions/%s/turns", resp.SessionID)
	rec := postJSON(t, srv.Handler(), turnsPath, map[string]any{"input": "I have a dairy allergy"})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.SessionID, nil)
	got := httptest.NewRecorder()
	srv.Handler().ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var state struct {
		SessionID string `json:"session_id"`
		Turns     []struct {
			UserInput string `json:"user_input"`
		} `json:"turns"`
		Context struct {
			AllergiesDisclosed bool     `json:"allergies_disclosed"`
			DisclosedAllergies []string `json:"disclosed_allergies"`
		} `json:"context"`
	}
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &state))
	assert.Equal(t, resp.SessionID, state.SessionID)
	require.Len(t, state.Turns, 1)
	assert.True(t, state.Context.AllergiesDisclosed)
	assert.Contains(t, state.Context.DisclosedAllergies, "dairy")
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	startSession(t, srv, map[string]any{"player_name": "Maya"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "allersim_sessions_started_total 1")
}
