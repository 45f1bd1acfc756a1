package stdio

import (
	"bytes"
	"context"
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
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

func pipeFor(endpoint string) *Pipe {
	return NewPipe(&config.Config{
		EndpointURL:      endpoint,
		ThreadPrefix:     "openwebui",
		DefaultModel:     "agui-agent",
		ConnectTimeout:   2 * time.Second,
		FrameTimeout:     5 * time.Second,
		CorruptThreshold: 5,
	})
}

func TestPipeServesRequestPerLine(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"RUN_STARTED\",\"runId\":\"r1\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"messageId\":\"m1\",\"delta\":\"pong\"}\n\n")
		io.WriteString(w, "data: {\"type\":\"RUN_FINISHED\",\"runId\":\"r1\"}\n\n")
	}))
	defer ts.Close()

	in := strings.NewReader(
		`{"messages":[{"role":"user","content":"ping"}]}` + "\n" +
			`{"messages":[{"role":"user","content":"ping again"}]}` + "\n")
	var out bytes.Buffer
	require.NoError(t, pipeFor(ts.URL).Run(context.Background(), in, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	// Two requests, each: one content chunk plus a terminator line.
	require.Len(t, lines, 4)
	for _, i := range []int{0, 2} {
		var chunk types.ChatCompletionChunk
		require.NoError(t, json.Unmarshal([]byte(lines[i]), &chunk))
		require.Len(t, chunk.Choices, 1)
		assert.Equal(t, "pong", chunk.Choices[0].Delta.Content)
	}
	assert.Equal(t, "[DONE]", lines[1])
	assert.Equal(t, "[DONE]", lines[3])
}

func TestPipeReportsMalformedLine(t *testing.T) {
	in := strings.NewReader(`{"messages":[]}` + "\n")
	var out bytes.Buffer
	require.NoError(t, pipeFor("http://localhost:1").Run(context.Background(), in, &out))

	var report map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.NotEmpty(t, report["error"])
}

func TestPipeSkipsBlankLines(t *testing.T) {
	in := strings.NewReader("\n\n")
	var out bytes.Buffer
	require.NoError(t, pipeFor("http://localhost:1").Run(context.Background(), in, &out))
	assert.Zero(t, out.Len())
}

func TestPipeSurfacesConnectionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // nothing listening anymore

	in := strings.NewReader(`{"messages":[{"role":"user","content":"hi"}]}` + "\n")
	var out bytes.Buffer
	require.NoError(t, pipeFor(ts.URL).Run(context.Background(), in, &out))

	assert.Contains(t, out.String(), "Failed to connect to AG-UI endpoint")
	assert.Contains(t, out.String(), "[DONE]")
}
