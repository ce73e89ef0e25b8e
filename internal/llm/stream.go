// ABOUTME: Pull-based iterator over the provider's SSE completion stream.
// ABOUTME: Parses each frame independently; malformed frames are skipped, never fatal.

package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// TerminationMarker is the provider's explicit end-of-stream sentinel.
const TerminationMarker = "[DONE]"

// Frame is one incremental unit of a streamed completion. Content carries a
// non-empty text delta; Done marks the end of the stream. A Done frame never
// carries content.
type Frame struct {
	Content string
	Done    bool
}

// streamChunk is the minimal shape of one provider SSE data payload.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Stream iterates over the frames of one streaming completion in arrival
// order. It is finite and not restartable. Close releases the underlying
// connection and must be called even after Next returns a Done frame.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Stream{
		body:    body,
		scanner: scanner,
	}
}

// Next returns the next frame. After the termination marker, or after the
// upstream connection ends without one, it returns a frame with Done set;
// every subsequent call returns io.EOF. Frames that fail to parse or carry
// no text delta are skipped and the stream continues.
func (s *Stream) Next() (Frame, error) {
	if s.done {
		return Frame{}, io.EOF
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			// Comments, event names, and blank keepalive lines.
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if payload == TerminationMarker {
			s.done = true
			return Frame{Done: true}, nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			// Malformed frame: skip it, keep reading.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			// Role-only or empty frame.
			continue
		}
		return Frame{Content: delta}, nil
	}

	// Upstream ended without an explicit termination marker (EOF or read
	// error). Terminate our own output rather than hang; the client gets a
	// truncated but properly closed response.
	s.done = true
	return Frame{Done: true}, nil
}

// Close releases the upstream connection. Safe to call more than once and
// safe to call while a consumer has abandoned the stream mid-read.
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}
