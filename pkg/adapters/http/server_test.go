package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/botsmith"
	"github.com/aretw0/botsmith/pkg/adapters/memory"
	"github.com/aretw0/botsmith/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menuGraph = `{
	"nodes": [
		{"id": "start", "type": "start", "data": {"command": "/start", "messageText": "Hi",
			"buttons": [{"text": "Next", "action": "goto", "target": "next"}]}},
		{"id": "next", "type": "message", "data": {"messageText": "Bye"}}
	]
}`

func newTestHandler(t *testing.T, s *Server) http.Handler {
	t.Helper()
	if s.Gatherer == nil {
		s.Gatherer = prometheus.NewRegistry()
	}
	h, err := NewHandler(s)
	require.NoError(t, err)
	return h
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCompile(t *testing.T) {
	h := newTestHandler(t, &Server{})

	w := post(h, "/compile", `{"graph": `+menuGraph+`, "options": {"projectName": "Demo", "projectId": 5}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var bundle botsmith.Bundle
	require.NoError(t, json.NewDecoder(w.Body).Decode(&bundle))
	assert.Contains(t, bundle.Program, "PROJECT_ID = 5")
	assert.Len(t, bundle.Files, 5)
	assert.Empty(t, bundle.Diagnostics)
}

func TestCompile_RejectsInvalidBody(t *testing.T) {
	h := newTestHandler(t, &Server{})

	w := post(h, "/compile", `{"options": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "graph")

	w = post(h, "/compile", `{"graph": {"nodes": []}, "options": {"projectId": -1}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate(t *testing.T) {
	h := newTestHandler(t, &Server{})

	w := post(h, "/validate", `{"graph": {"nodes": [
		{"id": "start", "type": "start", "data": {"messageText": "Hi", "buttons": [{"text": "x", "target": "ghost"}]}}
	]}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report ValidationReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
	assert.True(t, report.Valid)
	assert.NotEmpty(t, report.Diagnostics.OfKind(domain.DiagDanglingReference))
}

func TestGraph(t *testing.T) {
	h := newTestHandler(t, &Server{})

	w := post(h, "/graph", `{"graph": `+menuGraph+`}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))
	assert.Contains(t, w.Body.String(), "start --> next")
}

func TestStoredGraphs(t *testing.T) {
	loader := memory.NewLoader(map[string]string{"menu": menuGraph})
	h := newTestHandler(t, &Server{Loader: loader})

	req := httptest.NewRequest(http.MethodGet, "/graphs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["menu"]`, w.Body.String())

	w = post(h, "/graphs/menu/compile", `{"projectName": "Stored"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `\"\"\"Stored`)

	w = post(h, "/graphs/missing/compile", ``)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoredGraphs_NoLoader(t *testing.T) {
	h := newTestHandler(t, &Server{})
	req := httptest.NewRequest(http.MethodGet, "/graphs", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInfoAndHealth(t *testing.T) {
	h := newTestHandler(t, &Server{})

	for _, path := range []string{"/health", "/info", "/openapi.yaml", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var info map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&info))
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, botsmith.Version, info["version"])
}
