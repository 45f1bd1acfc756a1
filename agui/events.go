// Package agui defines the AG-UI protocol event vocabulary consumed by
// the bridge. Events arrive as JSON payloads on an SSE stream; arrival
// order is significant and is never reordered here.
package agui

import (
	"encoding/json"
	"fmt"
)

// EventKind discriminates AG-UI protocol events.
type EventKind string

const (
	EventRunStarted         EventKind = "RUN_STARTED"
	EventRunFinished        EventKind = "RUN_FINISHED"
	EventRunError           EventKind = "RUN_ERROR"
	EventTextMessageStart   EventKind = "TEXT_MESSAGE_START"
	EventTextMessageContent EventKind = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventKind = "TEXT_MESSAGE_END"
	EventToolCallStart      EventKind = "TOOL_CALL_START"
	EventToolCallArgs       EventKind = "TOOL_CALL_ARGS"
	EventToolCallEnd        EventKind = "TOOL_CALL_END"
	EventToolCallResult     EventKind = "TOOL_CALL_RESULT"

	// EventUnknown marks kinds this bridge does not recognize. Unknown
	// events are forwarded, not discarded, so the translator owns policy.
	EventUnknown EventKind = "UNKNOWN"
)

var knownKinds = map[EventKind]bool{
	EventRunStarted:         true,
	EventRunFinished:        true,
	EventRunError:           true,
	EventTextMessageStart:   true,
	EventTextMessageContent: true,
	EventTextMessageEnd:     true,
	EventToolCallStart:      true,
	EventToolCallArgs:       true,
	EventToolCallEnd:        true,
	EventToolCallResult:     true,
}

// Event is a single decoded AG-UI event. Only the fields relevant to
// the event's kind are populated; RawKind preserves the wire value for
// unknown kinds.
type Event struct {
	Kind       EventKind `json:"type"`
	RawKind    string    `json:"-"`
	ThreadID   string    `json:"threadId,omitempty"`
	RunID      string    `json:"runId,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	Role       string    `json:"role,omitempty"`
	Delta      string    `json:"delta,omitempty"`
	ToolCallID string    `json:"toolCallId,omitempty"`
	ToolName   string    `json:"toolCallName,omitempty"`
	Content    string    `json:"content,omitempty"`
	Message    string    `json:"message,omitempty"`
}

// Terminal reports whether the event ends its run.
func (e Event) Terminal() bool {
	return e.Kind == EventRunFinished || e.Kind == EventRunError
}

// Decode parses one raw event payload. Kinds outside the known set are
// mapped to EventUnknown with the wire value retained in RawKind.
func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("decode agui event: %w", err)
	}
	if ev.Kind == "" {
		return Event{}, fmt.Errorf("decode agui event: missing type field")
	}
	if !knownKinds[ev.Kind] {
		ev.RawKind = string(ev.Kind)
		ev.Kind = EventUnknown
	}
	return ev, nil
}
