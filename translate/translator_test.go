package translate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agui"
)

func run(t *testing.T, events []agui.Event) []string {
	t.Helper()
	tr := New()
	var chunks []string
	for _, ev := range events {
		chunks = append(chunks, tr.Step(ev)...)
	}
	chunks = append(chunks, tr.Finish()...)
	return chunks
}

func TestPlainTextRun(t *testing.T) {
	chunks := run(t, []agui.Event{
		{Kind: agui.EventRunStarted, RunID: "run_1"},
		{Kind: agui.EventTextMessageStart, MessageID: "msg_1"},
		{Kind: agui.EventTextMessageContent, MessageID: "msg_1", Delta: "Hello response"},
		{Kind: agui.EventTextMessageEnd, MessageID: "msg_1"},
		{Kind: agui.EventRunFinished, RunID: "run_1"},
	})

	require.Equal(t, []string{"Hello response"}, chunks)
}

func TestToolCallRun(t *testing.T) {
	chunks := run(t, []agui.Event{
		{Kind: agui.EventRunStarted},
		{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "math"},
		{Kind: agui.EventToolCallArgs, ToolCallID: "call_1", Delta: "25 + 17"},
		{Kind: agui.EventToolCallResult, ToolCallID: "call_1", Content: "42"},
		{Kind: agui.EventTextMessageStart, MessageID: "msg_1"},
		{Kind: agui.EventTextMessageContent, MessageID: "msg_1", Delta: "The answer is 42"},
		{Kind: agui.EventTextMessageEnd, MessageID: "msg_1"},
		{Kind: agui.EventRunFinished},
	})

	require.Len(t, chunks, 4)
	assert.Equal(t, "\n**🔧 Calling tool: `math`**\n", chunks[0])
	assert.Equal(t, "25 + 17", chunks[1])
	assert.Equal(t, "**📋 Tool result:**\n```\n42\n```\n\n", chunks[2])
	assert.Equal(t, "The answer is 42", chunks[3])
}

func TestTruncatedToolCallIsClosed(t *testing.T) {
	tr := New()
	var chunks []string
	chunks = append(chunks, tr.Step(agui.Event{Kind: agui.EventRunStarted})...)
	chunks = append(chunks, tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "math"})...)
	chunks = append(chunks, tr.Finish()...)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[1], "(no result)")
	assert.True(t, tr.Done())
}

func TestTruncatedToolCallUsesBufferedArgs(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolName: "math"})
	tr.Step(agui.Event{Kind: agui.EventToolCallArgs, Delta: "25 + 17"})
	chunks := tr.Finish()

	require.Len(t, chunks, 1)
	assert.Equal(t, "**📋 Tool result:**\n```\n25 + 17\n```\n\n", chunks[0])
}

func TestDuplicateRunErrorEmitsOneChunk(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	first := tr.Step(agui.Event{Kind: agui.EventRunError, Message: "boom"})
	second := tr.Step(agui.Event{Kind: agui.EventRunError, Message: "boom"})

	require.Equal(t, []string{"Error from AG-UI endpoint: boom"}, first)
	assert.Empty(t, second)
}

func TestFailAfterRunErrorIsSuppressed(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventRunError, Message: "boom"})
	assert.Empty(t, tr.Fail("stream timed out"))
}

func TestFailClosesOpenToolCall(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolName: "math"})
	chunks := tr.Fail("stream timed out")

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "(no result)")
	assert.Equal(t, "Error from AG-UI endpoint: stream timed out", chunks[1])
}

func TestImplicitMessageStart(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	chunks := tr.Step(agui.Event{Kind: agui.EventTextMessageContent, Delta: "hi"})

	require.Equal(t, []string{"hi"}, chunks)
	assert.Equal(t, PhaseMessageOpen, tr.Phase())
}

func TestImplicitToolCallStart(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	chunks := tr.Step(agui.Event{Kind: agui.EventToolCallArgs, Delta: `{"x":1}`})

	require.Equal(t, []string{`{"x":1}`}, chunks)
	assert.Equal(t, PhaseToolOpen, tr.Phase())
}

func TestToolCallEndEmitsSeparator(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolName: "math"})
	chunks := tr.Step(agui.Event{Kind: agui.EventToolCallEnd})

	require.Equal(t, []string{"\n"}, chunks)
	assert.Equal(t, PhaseRunning, tr.Phase())
}

func TestUnknownEventIsSkipped(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	chunks := tr.Step(agui.Event{Kind: agui.EventUnknown, RawKind: "STATE_SNAPSHOT"})

	assert.Empty(t, chunks)
	assert.Equal(t, PhaseRunning, tr.Phase())
	assert.False(t, tr.Done())
}

func TestEmptyDeltasProduceNoChunks(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	assert.Empty(t, tr.Step(agui.Event{Kind: agui.EventTextMessageContent, Delta: ""}))
	tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolName: "math"})
	assert.Empty(t, tr.Step(agui.Event{Kind: agui.EventToolCallArgs, Delta: ""}))
}

func TestEventsAfterTerminalAreIgnored(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventRunFinished})
	assert.Empty(t, tr.Step(agui.Event{Kind: agui.EventTextMessageContent, Delta: "late"}))
}

// Two independent runs over the same tool triple must render byte-identical
// output.
func TestFormattingIsDeterministic(t *testing.T) {
	events := []agui.Event{
		{Kind: agui.EventRunStarted},
		{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "math"},
		{Kind: agui.EventToolCallArgs, ToolCallID: "call_1", Delta: "25 + 17"},
		{Kind: agui.EventToolCallResult, ToolCallID: "call_1", Content: "42"},
		{Kind: agui.EventRunFinished},
	}

	first := strings.Join(run(t, events), "")
	second := strings.Join(run(t, events), "")
	assert.Equal(t, first, second)
}

// Sequential runs end one call's argument stream before its result
// arrives; nothing may be synthesized in between and each result must
// render exactly once.
func TestSequentialToolCallsRenderEachResultOnce(t *testing.T) {
	chunks := run(t, []agui.Event{
		{Kind: agui.EventRunStarted},
		{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "search"},
		{Kind: agui.EventToolCallArgs, ToolCallID: "call_1", Delta: `{"a":1}`},
		{Kind: agui.EventToolCallEnd, ToolCallID: "call_1"},
		{Kind: agui.EventToolCallStart, ToolCallID: "call_2", ToolName: "fetch"},
		{Kind: agui.EventToolCallArgs, ToolCallID: "call_2", Delta: `{"b":2}`},
		{Kind: agui.EventToolCallEnd, ToolCallID: "call_2"},
		{Kind: agui.EventToolCallResult, ToolCallID: "call_1", Content: "first"},
		{Kind: agui.EventToolCallResult, ToolCallID: "call_2", Content: "second"},
		{Kind: agui.EventRunFinished},
	})

	joined := strings.Join(chunks, "")
	assert.Equal(t, 2, strings.Count(joined, "**📋 Tool result:**"))
	assert.Contains(t, joined, "```\nfirst\n```")
	assert.Contains(t, joined, "```\nsecond\n```")
	assert.NotContains(t, joined, "```\n{\"a\":1}\n```")
}

func TestResultAfterInterveningTextResolvesCall(t *testing.T) {
	chunks := run(t, []agui.Event{
		{Kind: agui.EventRunStarted},
		{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "math"},
		{Kind: agui.EventToolCallArgs, ToolCallID: "call_1", Delta: "2+2"},
		{Kind: agui.EventToolCallEnd, ToolCallID: "call_1"},
		{Kind: agui.EventTextMessageContent, MessageID: "msg_1", Delta: "calculating... "},
		{Kind: agui.EventToolCallResult, ToolCallID: "call_1", Content: "4"},
		{Kind: agui.EventRunFinished},
	})

	joined := strings.Join(chunks, "")
	assert.Equal(t, 1, strings.Count(joined, "**📋 Tool result:**"))
	assert.Contains(t, joined, "```\n4\n```")
}

func TestResultWithoutIDResolvesOldestWaiter(t *testing.T) {
	tr := New()
	tr.Step(agui.Event{Kind: agui.EventRunStarted})
	tr.Step(agui.Event{Kind: agui.EventToolCallStart, ToolCallID: "call_1", ToolName: "a"})
	tr.Step(agui.Event{Kind: agui.EventToolCallEnd, ToolCallID: "call_1"})
	tr.Step(agui.Event{Kind: agui.EventToolCallResult, Content: "done"})
	chunks := tr.Finish()

	// The waiter was resolved; truncation has nothing left to close.
	assert.Empty(t, chunks)
}

// Property: every opened block is closed by the time the run terminates,
// for any of these event sequences.
func TestNoDanglingOpenState(t *testing.T) {
	sequences := [][]agui.Event{
		{
			{Kind: agui.EventRunStarted},
			{Kind: agui.EventToolCallStart, ToolName: "a"},
			{Kind: agui.EventToolCallArgs, Delta: "x"},
		},
		{
			{Kind: agui.EventRunStarted},
			{Kind: agui.EventTextMessageStart},
			{Kind: agui.EventTextMessageContent, Delta: "partial"},
		},
		{
			{Kind: agui.EventRunStarted},
			{Kind: agui.EventToolCallStart, ToolName: "a"},
			{Kind: agui.EventToolCallEnd},
		},
	}

	for i, events := range sequences {
		tr := New()
		for _, ev := range events {
			tr.Step(ev)
		}
		tr.Finish()
		if !tr.Done() {
			t.Errorf("sequence %d: translator not terminal after Finish", i)
		}
		if tr.Phase() != PhaseDone {
			t.Errorf("sequence %d: phase %s after Finish", i, tr.Phase())
		}
	}
}
