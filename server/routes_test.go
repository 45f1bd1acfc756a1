package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/handlers"
)

func routerFor(endpoint string) http.Handler {
	cfg := &config.Config{
		EndpointURL:      endpoint,
		ThreadPrefix:     "openwebui",
		DefaultModel:     "agui-agent",
		ListenAddr:       "localhost:0",
		ConnectTimeout:   2 * time.Second,
		FrameTimeout:     5 * time.Second,
		CorruptThreshold: 5,
		RateLimitRPS:     100,
		RateLimitBurst:   100,
	}
	return SetupRoutes(cfg, handlers.NewBridge(cfg))
}

func TestHealthRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	routerFor("http://localhost:1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "http://localhost:1", status["endpoint"])
}

func TestModelsRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	routerFor("http://localhost:1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/models", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "agui-agent")
}

func TestChatCompletionRoute(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"RUN_STARTED\",\"runId\":\"r1\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"messageId\":\"m1\",\"delta\":\"hello\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"RUN_FINISHED\",\"runId\":\"r1\"}\n\n")
	}))
	defer ts.Close()

	body := `{"model":"agui-agent","messages":[{"role":"user","content":"hi"}],"stream":true}`
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	routerFor(ts.URL).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
	assert.Contains(t, rec.Body.String(), "data: [DONE]")
}

func TestMetricsRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	routerFor("http://localhost:1").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
