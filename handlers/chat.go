// Package handlers wires the bridge pipeline behind the HTTP surface:
// validate the chat request, transform it into a run request, forward
// it to the agent endpoint and translate the event stream back into
// chat-completion output.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agent"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agui"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/codec"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/emit"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/stream"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/transform"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/translate"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/validate"
)

// Bridge holds the per-process collaborators of the chat surface.
type Bridge struct {
	log    *logger.Logger
	cfg    *config.Config
	client *agent.Client
}

func NewBridge(cfg *config.Config) *Bridge {
	return &Bridge{
		log:    logger.NewLogger("Bridge", uuid.NewString()),
		cfg:    cfg,
		client: agent.NewClient(cfg),
	}
}

// HandleChatCompletion serves POST /v1/chat/completions.
func (b *Bridge) HandleChatCompletion(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	if err := validate.ChatRequestBody(body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.ToolParameters(req.Tools); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	input, err := transform.BuildRunInput(req, b.cfg)
	if err != nil {
		switch {
		case errors.Is(err, transform.ErrMalformedRequest):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, config.ErrConfiguration):
			b.log.Error(err.Error())
			http.Error(w, "bridge misconfigured", http.StatusInternalServerError)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	b.log.Info(fmt.Sprintf("run %s: %d messages, model %s, stream=%v",
		input.RunID, len(input.Messages), input.ForwardedProps.Model, req.Stream))

	if req.Stream {
		b.streamRun(w, r, input)
		return
	}
	b.bufferedRun(w, r, input)
}

// userFacingError renders a transport or endpoint failure as chunk
// text. By the time the agent endpoint fails, the front end already
// holds an accepted connection, so the message travels in-band.
func (b *Bridge) userFacingError(err error) string {
	var valErr *agent.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Error()
	}
	var epErr *agent.EndpointError
	if errors.As(err, &epErr) {
		return fmt.Sprintf("Error: %s", epErr.Error())
	}
	if agent.IsConnectionError(err) {
		return fmt.Sprintf("Error: Failed to connect to AG-UI endpoint at %s. Please check if the AG-UI endpoint is running.", b.client.Endpoint())
	}
	return fmt.Sprintf("Error: %s", err)
}

// streamRun forwards the run and re-emits the event stream as
// incremental completion chunks.
func (b *Bridge) streamRun(w http.ResponseWriter, r *http.Request, input types.RunAgentInput) {
	emitter, err := emit.NewStreamEmitter(w, input.RunID, input.ForwardedProps.Model)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	respBody, err := b.client.Run(r.Context(), input)
	if err != nil {
		b.log.Error(err.Error())
		emitter.Emit(b.userFacingError(err))
		emitter.Done()
		metrics.RecordRun("stream", "connect_error")
		return
	}

	reader := stream.NewReader(respBody, stream.Options{
		FrameTimeout:     b.cfg.FrameTimeout,
		CorruptThreshold: b.cfg.CorruptThreshold,
	})
	defer reader.Close()

	status := b.translateAll(r, reader, emitter)
	metrics.RecordRun("stream", status)

	if r.Context().Err() == nil {
		emitter.Done()
	}
}

// bufferedRun forwards the run and aggregates all output into a single
// completion document. The endpoint may answer with one JSON document
// or with an event stream; both shapes are handled.
func (b *Bridge) bufferedRun(w http.ResponseWriter, r *http.Request, input types.RunAgentInput) {
	resp, err := b.client.RunJSON(r.Context(), input)
	if err != nil {
		b.log.Error(err.Error())
		metrics.RecordRun("json", "connect_error")
		b.writeCompletion(w, input, b.userFacingError(err))
		return
	}
	defer resp.Body.Close()

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		reader := stream.NewReader(resp.Body, stream.Options{
			FrameTimeout:     b.cfg.FrameTimeout,
			CorruptThreshold: b.cfg.CorruptThreshold,
		})
		defer reader.Close()

		emitter := emit.NewBufferEmitter()
		status := b.translateAll(r, reader, emitter)
		metrics.RecordRun("json", status)
		if r.Context().Err() != nil {
			return
		}
		b.writeCompletion(w, input, emitter.Content())
		return
	}

	text, err := agent.DecodeDocument(resp.Body)
	if err != nil {
		b.log.Error(err.Error())
		metrics.RecordRun("json", "decode_error")
		b.writeCompletion(w, input, b.userFacingError(err))
		return
	}
	metrics.RecordRun("json", "finished")
	b.writeCompletion(w, input, text)
}

func (b *Bridge) writeCompletion(w http.ResponseWriter, input types.RunAgentInput, content string) {
	completion := codec.NewCompletion(input.RunID, input.ForwardedProps.Model, content)
	if err := codec.WriteCompletion(w, completion); err != nil {
		b.log.Error(fmt.Sprintf("write completion: %v", err))
	}
}

// translateAll drains the reader through one translator, delivering
// chunks in arrival order. Returns the run's outcome for metrics.
func (b *Bridge) translateAll(r *http.Request, reader *stream.Reader, emitter emit.Emitter) string {
	tr := translate.New()

	emitChunks := func(chunks []string) {
		for _, chunk := range chunks {
			if err := emitter.Emit(chunk); err != nil {
				b.log.Warn(fmt.Sprintf("emit chunk: %v", err))
				return
			}
		}
	}

	for {
		ev, err := reader.Next()
		if err != nil {
			// Caller gone: discard state silently, there is no live
			// recipient for synthesized closure chunks.
			if r.Context().Err() != nil {
				return "cancelled"
			}
			switch {
			case errors.Is(err, io.EOF):
				emitChunks(tr.Finish())
				return "finished"
			case errors.Is(err, stream.ErrIncomplete):
				b.log.Warn("stream ended without terminal event")
				emitChunks(tr.Finish())
				return "incomplete"
			case errors.Is(err, stream.ErrStreamTimeout):
				b.log.Error(err.Error())
				emitChunks(tr.Fail("timed out waiting for events"))
				return "timeout"
			case errors.Is(err, stream.ErrStreamCorrupt):
				b.log.Error(err.Error())
				emitChunks(tr.Fail("event stream corrupt"))
				return "corrupt"
			default:
				b.log.Error(err.Error())
				emitChunks(tr.Fail(err.Error()))
				return "error"
			}
		}

		emitChunks(tr.Step(ev))
		if tr.Done() {
			if ev.Kind == agui.EventRunError {
				return "run_error"
			}
			return "finished"
		}
	}
}

// HandleListModels serves GET /v1/models.
func (b *Bridge) HandleListModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   b.cfg.Models(),
	})
}
