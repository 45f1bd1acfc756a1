// Package codec frames and unframes the two wire formats the bridge
// speaks: server-sent-event frames on the agent side and OpenAI-style
// chat completion chunks on the front-end side.
package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
)

const (
	dataPrefix = "data: "

	// DoneMarker terminates an OpenAI-style completion stream.
	DoneMarker = "[DONE]"

	ObjectChunk      = "chat.completion.chunk"
	ObjectCompletion = "chat.completion"
)

// ParseFrame extracts the payload of one SSE line. Lines without a
// data prefix (comments, event names, keep-alives) report ok=false and
// are not an error.
func ParseFrame(line string) (payload string, ok bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimPrefix(line, dataPrefix), true
}

// WriteFrame writes one SSE data frame.
func WriteFrame(w io.Writer, payload []byte) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// NewChunk builds one streaming completion chunk carrying a content delta.
func NewChunk(id, model, content string) types.ChatCompletionChunk {
	return types.ChatCompletionChunk{
		ID:      id,
		Object:  ObjectChunk,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.ChunkChoice{
			{Index: 0, Delta: types.ChunkDelta{Content: content}},
		},
	}
}

// WriteChunk encodes a completion chunk as one SSE frame.
func WriteChunk(w io.Writer, chunk types.ChatCompletionChunk) error {
	body, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}
	return WriteFrame(w, body)
}

// WriteDone writes the stream terminator frame.
func WriteDone(w io.Writer) error {
	_, err := fmt.Fprintf(w, "data: %s\n\n", DoneMarker)
	return err
}

// NewCompletion builds the aggregated non-streaming response document.
func NewCompletion(id, model, content string) types.ChatCompletion {
	return types.ChatCompletion{
		ID:      id,
		Object:  ObjectCompletion,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.CompletionChoice{
			{
				Index:        0,
				Message:      types.ChatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	}
}

// WriteCompletion writes the aggregated response as a JSON document.
func WriteCompletion(w http.ResponseWriter, completion types.ChatCompletion) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(completion)
}
