// Package emit delivers translated chunks to the front end, either as
// an incremental SSE stream or aggregated into one document. Chunks are
// written in the order they are emitted; each run drives exactly one
// emitter from a single goroutine, so no reordering is possible.
package emit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/codec"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
)

// Emitter delivers output chunks to the caller.
type Emitter interface {
	// Emit delivers one chunk of text.
	Emit(chunk string) error
	// Done signals end-of-stream.
	Done() error
}

// StreamEmitter writes one chat-completion-chunk SSE frame per chunk
// and flushes after every write.
type StreamEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	runID   string
	model   string
}

func NewStreamEmitter(w http.ResponseWriter, runID, model string) (*StreamEmitter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &StreamEmitter{w: w, flusher: flusher, runID: runID, model: model}, nil
}

func (e *StreamEmitter) Emit(chunk string) error {
	if err := codec.WriteChunk(e.w, codec.NewChunk(e.runID, e.model, chunk)); err != nil {
		return fmt.Errorf("write stream chunk: %w", err)
	}
	e.flusher.Flush()
	metrics.RecordChunk()
	return nil
}

func (e *StreamEmitter) Done() error {
	if err := codec.WriteDone(e.w); err != nil {
		return fmt.Errorf("write stream terminator: %w", err)
	}
	e.flusher.Flush()
	return nil
}

// BufferEmitter concatenates chunks in arrival order for the
// non-streaming response path.
type BufferEmitter struct {
	buf  strings.Builder
	done bool
}

func NewBufferEmitter() *BufferEmitter {
	return &BufferEmitter{}
}

func (e *BufferEmitter) Emit(chunk string) error {
	e.buf.WriteString(chunk)
	metrics.RecordChunk()
	return nil
}

func (e *BufferEmitter) Done() error {
	e.done = true
	return nil
}

// Content returns the aggregated document text.
func (e *BufferEmitter) Content() string {
	return e.buf.String()
}
