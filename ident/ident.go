// Package ident mints the identifiers the bridge attaches to threads,
// runs, messages and tool calls. Identifiers are random-entropy UUIDs
// behind a role prefix; no coordination or persistence is involved.
package ident

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	runPrefix     = "run"
	messagePrefix = "msg"
	callPrefix    = "call"
)

// NewThreadID returns a conversation-scoped identifier under the
// configured prefix, e.g. "openwebui_<uuid>".
func NewThreadID(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString())
}

// NewRunID returns an identifier for one run, e.g. "run_<uuid>".
func NewRunID() string {
	return fmt.Sprintf("%s_%s", runPrefix, uuid.NewString())
}

// NewMessageID returns an identifier for one forwarded message.
func NewMessageID() string {
	return fmt.Sprintf("%s_%s", messagePrefix, uuid.NewString())
}

// NewToolCallID returns an identifier for one tool invocation.
func NewToolCallID() string {
	return fmt.Sprintf("%s_%s", callPrefix, uuid.NewString())
}
