// Package stdio is the pipe transport: one chat-completion request
// per input line, the translated output chunks as JSON lines, each
// request terminated by a [DONE] marker line. Useful for embedding
// the bridge as a subprocess instead of an HTTP service.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agent"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agui"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/codec"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/config"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/stream"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/transform"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/translate"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/types"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/validate"
)

const maxLineBytes = 1024 * 1024

type Pipe struct {
	log    *logger.Logger
	cfg    *config.Config
	client *agent.Client
}

func NewPipe(cfg *config.Config) *Pipe {
	return &Pipe{
		log:    logger.NewLogger("Pipe", uuid.NewString()),
		cfg:    cfg,
		client: agent.NewClient(cfg),
	}
}

// Serve runs the pipe over the process's stdin and stdout.
func (p *Pipe) Serve(ctx context.Context) error {
	return p.Run(ctx, os.Stdin, os.Stdout)
}

// Run reads requests line by line until in is exhausted. Requests are
// served strictly in order; output lines for one request never
// interleave with another's.
func (p *Pipe) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		p.handle(ctx, line, out)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read pipe input: %w", err)
	}
	return nil
}

func (p *Pipe) handle(ctx context.Context, line []byte, out io.Writer) {
	writeErr := func(msg string) {
		json.NewEncoder(out).Encode(map[string]string{"error": msg})
	}

	if err := validate.ChatRequestBody(line); err != nil {
		writeErr(err.Error())
		return
	}
	var req types.ChatCompletionRequest
	if err := json.Unmarshal(line, &req); err != nil {
		writeErr("invalid request")
		return
	}
	if err := validate.ToolParameters(req.Tools); err != nil {
		writeErr(err.Error())
		return
	}
	input, err := transform.BuildRunInput(req, p.cfg)
	if err != nil {
		writeErr(err.Error())
		return
	}

	emitChunk := func(content string) {
		json.NewEncoder(out).Encode(codec.NewChunk(input.RunID, input.ForwardedProps.Model, content))
	}
	done := func() { fmt.Fprintln(out, codec.DoneMarker) }

	body, err := p.client.Run(ctx, input)
	if err != nil {
		p.log.Error(err.Error())
		metrics.RecordRun("pipe", "connect_error")
		if agent.IsConnectionError(err) {
			emitChunk(fmt.Sprintf("Error: Failed to connect to AG-UI endpoint at %s. Please check if the AG-UI endpoint is running.", p.client.Endpoint()))
		} else {
			emitChunk(fmt.Sprintf("Error: %s", err))
		}
		done()
		return
	}

	reader := stream.NewReader(body, stream.Options{
		FrameTimeout:     p.cfg.FrameTimeout,
		CorruptThreshold: p.cfg.CorruptThreshold,
	})
	defer reader.Close()

	tr := translate.New()
	emitAll := func(chunks []string) {
		for _, chunk := range chunks {
			emitChunk(chunk)
		}
	}

	status := "finished"
	for {
		ev, err := reader.Next()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				emitAll(tr.Finish())
			case errors.Is(err, stream.ErrIncomplete):
				p.log.Warn("stream ended without terminal event")
				emitAll(tr.Finish())
				status = "incomplete"
			case errors.Is(err, stream.ErrStreamTimeout):
				emitAll(tr.Fail("timed out waiting for events"))
				status = "timeout"
			case errors.Is(err, stream.ErrStreamCorrupt):
				emitAll(tr.Fail("event stream corrupt"))
				status = "corrupt"
			default:
				emitAll(tr.Fail(err.Error()))
				status = "error"
			}
			break
		}
		emitAll(tr.Step(ev))
		if tr.Done() {
			if ev.Kind == agui.EventRunError {
				status = "run_error"
			}
			break
		}
	}
	metrics.RecordRun("pipe", status)
	done()
}
