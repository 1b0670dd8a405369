package gradio

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// Event names emitted by the Gradio call stream.
const (
	EventGenerating = "generating"
	EventHeartbeat  = "heartbeat"
	EventComplete   = "complete"
	EventError      = "error"
)

// Event is one Server-Sent Event from a call stream.
type Event struct {
	Name string // value of the "event:" field; "message" when absent
	Data string // concatenated "data:" lines

	// Err is set if reading the stream failed.
	Err error
}

// maxEventSize bounds a single SSE line. Humanized passages arrive in one
// data line, so the scanner default of 64KiB is too small.
const maxEventSize = 4 << 20

// ReadEvents reads SSE events from body and delivers them on the returned
// channel. The channel is closed when the body is exhausted, a read error
// occurs, or ctx is cancelled. The body is closed when reading finishes.
//
//   - "event:" sets the event name, "data:" lines are joined with newlines.
//   - Lines starting with ":" are comments.
//   - An empty line dispatches the pending event.
//   - A trailing event without a blank line is still dispatched at EOF.
func ReadEvents(ctx context.Context, body io.ReadCloser) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		defer body.Close()

		scanner := bufio.NewScanner(body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

		var (
			name    string
			dataBuf strings.Builder
			hasData bool
		)
		flush := func() bool {
			if !hasData && name == "" {
				return true
			}
			ev := Event{Name: name, Data: dataBuf.String()}
			if ev.Name == "" {
				ev.Name = "message"
			}
			name, hasData = "", false
			dataBuf.Reset()
			return send(ctx, ch, ev)
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					send(ctx, ch, Event{Err: err})
					return
				}
				flush()
				return
			}

			line := scanner.Text()
			switch {
			case line == "":
				if !flush() {
					return
				}
			case strings.HasPrefix(line, ":"):
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				payload := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
				if hasData {
					dataBuf.WriteByte('\n')
				}
				dataBuf.WriteString(payload)
				hasData = true
			default:
				// id, retry and unknown fields are ignored.
			}
		}
	}()
	return ch
}

func send(ctx context.Context, ch chan<- Event, ev Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
