// Package stream decodes the agent endpoint's SSE response body into an
// ordered sequence of AG-UI events. The reader is pull-based: callers
// drain it one event at a time, which keeps translation free of any
// network dependency in tests.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/agui"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/codec"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/logger"
	"github.com/SirCypkowskyy/ag-ui-compatible-openwebui/metrics"
)

var (
	// ErrStreamCorrupt aborts a stream after too many consecutive
	// undecodable frames.
	ErrStreamCorrupt = errors.New("event stream corrupt")

	// ErrStreamTimeout aborts a stream when no frame arrives within the
	// configured deadline.
	ErrStreamTimeout = errors.New("event stream timed out")

	// ErrIncomplete reports a stream that closed without a terminal
	// event. Callers treat it as an implicit RUN_FINISHED but may emit
	// closing chunks for anything left open.
	ErrIncomplete = errors.New("event stream ended without terminal event")
)

// DecodeError carries the raw frame that failed to decode.
type DecodeError struct {
	Frame string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame %q: %v", e.Frame, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Options struct {
	// FrameTimeout bounds the wait for the next frame. Zero disables
	// the watchdog.
	FrameTimeout time.Duration

	// CorruptThreshold is the number of consecutive decode failures
	// tolerated before the stream is abandoned. Zero means default.
	CorruptThreshold int
}

const defaultCorruptThreshold = 5

// Reader turns an SSE response body into discrete AG-UI events. Not
// safe for concurrent use; one reader serves exactly one run.
type Reader struct {
	body      io.ReadCloser
	sc        *bufio.Scanner
	log       *logger.Logger
	threshold int

	frameTimeout time.Duration
	watchdog     *time.Timer
	timedOut     atomic.Bool

	consecutive int
	malformed   int
	terminal    bool
	done        bool
}

func NewReader(body io.ReadCloser, opts Options) *Reader {
	threshold := opts.CorruptThreshold
	if threshold <= 0 {
		threshold = defaultCorruptThreshold
	}
	return &Reader{
		body:         body,
		sc:           bufio.NewScanner(body),
		log:          logger.NewLogger("EventStream", uuid.NewString()),
		threshold:    threshold,
		frameTimeout: opts.FrameTimeout,
	}
}

// Malformed returns the total count of frames skipped as undecodable.
func (r *Reader) Malformed() int { return r.malformed }

// Close tears down the underlying connection. Safe to call twice.
func (r *Reader) Close() error {
	r.done = true
	return r.body.Close()
}

// armWatchdog starts the per-frame deadline. Firing force-closes the
// body, which unblocks the scanner.
func (r *Reader) armWatchdog() {
	if r.frameTimeout <= 0 {
		return
	}
	r.watchdog = time.AfterFunc(r.frameTimeout, func() {
		r.timedOut.Store(true)
		r.body.Close()
	})
}

func (r *Reader) disarmWatchdog() {
	if r.watchdog != nil {
		r.watchdog.Stop()
		r.watchdog = nil
	}
}

// Next returns the next decoded event in arrival order. It returns
// io.EOF after a terminal event, ErrIncomplete if the stream closed
// without one, ErrStreamTimeout on a frame deadline, and
// ErrStreamCorrupt when consecutive decode failures exceed the
// threshold. A single malformed frame is skipped, counted and logged,
// never fatal on its own.
func (r *Reader) Next() (agui.Event, error) {
	if r.done {
		return agui.Event{}, io.EOF
	}

	for {
		r.armWatchdog()
		ok := r.sc.Scan()
		r.disarmWatchdog()

		if !ok {
			if r.timedOut.Load() {
				r.done = true
				return agui.Event{}, ErrStreamTimeout
			}
			r.done = true
			r.body.Close()
			if err := r.sc.Err(); err != nil {
				return agui.Event{}, fmt.Errorf("read event stream: %w", err)
			}
			if !r.terminal {
				return agui.Event{}, ErrIncomplete
			}
			return agui.Event{}, io.EOF
		}

		payload, isData := codec.ParseFrame(r.sc.Text())
		if !isData || payload == "" {
			continue
		}

		ev, err := agui.Decode([]byte(payload))
		if err != nil {
			r.malformed++
			r.consecutive++
			metrics.RecordDecodeFailure()
			decErr := &DecodeError{Frame: payload, Err: err}
			r.log.Warn(decErr.Error())
			if r.consecutive >= r.threshold {
				r.done = true
				r.body.Close()
				return agui.Event{}, fmt.Errorf("%w: %d consecutive undecodable frames", ErrStreamCorrupt, r.consecutive)
			}
			continue
		}
		r.consecutive = 0

		// A terminal event ends the sequence; further frames would
		// belong to no live run.
		if ev.Terminal() {
			r.terminal = true
			r.done = true
			r.body.Close()
		}
		return ev, nil
	}
}
