// Package translate maps AG-UI events onto front-end text chunks. One
// Translator owns the mutable state of exactly one run; it is created
// at run start and discarded when the run terminates, so nothing leaks
// across runs. Events are applied strictly one at a time in arrival
// order.
package translate

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agui"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/ident"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
)

// Phase is the translator's position in the run lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseMessageOpen
	PhaseToolOpen
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseMessageOpen:
		return "message_open"
	case PhaseToolOpen:
		return "tool_open"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

const (
	toolHeaderFormat = "\n**🔧 Calling tool: `%s`**\n"
	toolResultFormat = "**📋 Tool result:**\n```\n%s\n```\n\n"
	errorFormat      = "Error from AG-UI endpoint: %s"
	noResultMarker   = "(no result)"
)

// awaitedCall is a tool call whose argument stream has ended but whose
// TOOL_CALL_RESULT has not arrived yet. Sequential multi-tool runs can
// interleave other events between the two.
type awaitedCall struct {
	id   string
	args string
}

// Translator converts one run's event sequence into output chunks.
// Not safe for concurrent use; each run gets its own instance.
type Translator struct {
	phase Phase
	log   *logger.Logger

	// state of the tool call currently being streamed
	toolCallID string
	toolName   string
	args       strings.Builder

	// ended calls still awaiting their result, in arrival order
	awaiting []awaitedCall

	errorSurfaced bool
}

func New() *Translator {
	return &Translator{
		phase: PhaseIdle,
		log:   logger.NewLogger("Translator", uuid.NewString()),
	}
}

func (t *Translator) Phase() Phase { return t.phase }

// Done reports whether the run has reached a terminal state.
func (t *Translator) Done() bool { return t.phase == PhaseDone }

// Step applies one event and returns the chunks it produced, possibly
// none. Unknown kinds are logged and skipped; they never fail the run.
func (t *Translator) Step(ev agui.Event) []string {
	if t.phase == PhaseDone {
		// Events after termination carry no live recipient. Repeated
		// RUN_ERROR deliveries in particular must not duplicate the
		// error chunk.
		t.log.Warn(fmt.Sprintf("event %s after terminal state ignored", ev.Kind))
		return nil
	}

	switch ev.Kind {
	case agui.EventRunStarted:
		t.log.Info(fmt.Sprintf("run started: %s", ev.RunID))
		t.phase = PhaseRunning
		return nil

	case agui.EventTextMessageStart:
		t.parkOpenToolCall()
		t.phase = PhaseMessageOpen
		return nil

	case agui.EventTextMessageContent:
		// Tolerate content without a preceding START; transport-level
		// buffering can reorder delivery across frames.
		t.parkOpenToolCall()
		t.phase = PhaseMessageOpen
		if ev.Delta == "" {
			return nil
		}
		return []string{ev.Delta}

	case agui.EventTextMessageEnd:
		if t.phase == PhaseMessageOpen {
			t.phase = PhaseRunning
		}
		return nil

	case agui.EventToolCallStart:
		t.parkOpenToolCall()
		t.phase = PhaseToolOpen
		t.toolCallID = ev.ToolCallID
		if t.toolCallID == "" {
			t.toolCallID = ident.NewToolCallID()
		}
		t.toolName = ev.ToolName
		if t.toolName == "" {
			t.toolName = "unknown"
		}
		t.args.Reset()
		metrics.RecordToolCall(t.toolName)
		t.log.Info(fmt.Sprintf("tool call started: %s (%s)", t.toolName, t.toolCallID))
		return []string{fmt.Sprintf(toolHeaderFormat, t.toolName)}

	case agui.EventToolCallArgs:
		if t.phase != PhaseToolOpen {
			// Implicit start: args arrived before their START frame.
			t.phase = PhaseToolOpen
			t.toolCallID = ev.ToolCallID
			t.toolName = "unknown"
			t.args.Reset()
		}
		if ev.Delta == "" {
			return nil
		}
		t.args.WriteString(ev.Delta)
		return []string{ev.Delta}

	case agui.EventToolCallEnd:
		if t.phase != PhaseToolOpen {
			return nil
		}
		// Arguments are complete; the result arrives as its own event,
		// possibly after other calls have started.
		t.parkOpenToolCall()
		t.phase = PhaseRunning
		return []string{"\n"}

	case agui.EventToolCallResult:
		t.resolveAwaited(ev.ToolCallID)
		if ev.Content == "" {
			return nil
		}
		return []string{fmt.Sprintf(toolResultFormat, ev.Content)}

	case agui.EventRunFinished:
		t.log.Info(fmt.Sprintf("run finished: %s", ev.RunID))
		t.phase = PhaseDone
		return nil

	case agui.EventRunError:
		t.phase = PhaseDone
		if t.errorSurfaced {
			return nil
		}
		t.errorSurfaced = true
		msg := ev.Message
		if msg == "" {
			msg = "Unknown error"
		}
		t.log.Error(fmt.Sprintf("run error: %s", msg))
		return []string{fmt.Sprintf(errorFormat, msg)}

	default:
		kind := ev.RawKind
		if kind == "" {
			kind = string(ev.Kind)
		}
		t.log.Warn(fmt.Sprintf("unknown event kind %q skipped", kind))
		return nil
	}
}

// Finish handles a stream that ended without a terminal event. Calls
// still waiting on a result get a synthesized closing block so the
// output stays well-formed.
func (t *Translator) Finish() []string {
	if t.phase == PhaseDone {
		return nil
	}
	chunks := t.closeDanglingCalls()
	t.phase = PhaseDone
	return chunks
}

// Fail terminates the run with a user-visible error chunk, emitted at
// most once per run regardless of how many failures are reported.
func (t *Translator) Fail(message string) []string {
	chunks := t.closeDanglingCalls()
	t.phase = PhaseDone
	if t.errorSurfaced {
		return chunks
	}
	t.errorSurfaced = true
	return append(chunks, fmt.Sprintf(errorFormat, message))
}

// parkOpenToolCall moves the currently streaming call onto the awaiting
// list. No chunk is produced; the call's result (or the truncation
// closure) renders later.
func (t *Translator) parkOpenToolCall() {
	if t.phase != PhaseToolOpen {
		return
	}
	t.awaiting = append(t.awaiting, awaitedCall{
		id:   t.toolCallID,
		args: strings.TrimSpace(t.args.String()),
	})
	t.args.Reset()
	t.phase = PhaseRunning
}

// resolveAwaited marks one call's result as delivered. An empty or
// unmatched id resolves the oldest waiter, tolerating endpoints that
// omit the id on results.
func (t *Translator) resolveAwaited(id string) {
	if t.phase == PhaseToolOpen && (id == "" || id == t.toolCallID) {
		t.args.Reset()
		t.phase = PhaseRunning
		return
	}
	for i, call := range t.awaiting {
		if id == "" || call.id == id {
			t.awaiting = append(t.awaiting[:i], t.awaiting[i+1:]...)
			return
		}
	}
	if len(t.awaiting) > 0 {
		t.awaiting = t.awaiting[1:]
	}
}

// closeDanglingCalls synthesizes a fenced block for every call whose
// result never arrived before the stream was cut off. The block carries
// whatever arguments were buffered, or an explicit no-result marker.
func (t *Translator) closeDanglingCalls() []string {
	t.parkOpenToolCall()
	var chunks []string
	for _, call := range t.awaiting {
		body := call.args
		if body == "" {
			body = noResultMarker
		}
		t.log.Warn(fmt.Sprintf("tool call %s closed without result", call.id))
		chunks = append(chunks, fmt.Sprintf(toolResultFormat, body))
	}
	t.awaiting = nil
	return chunks
}
