// Package research orchestrates a full query turn: retrieval fan-out,
// streamed synthesis over the merged results, and conversation persistence.
// It is transport-agnostic; consumers receive a typed event stream.
package research

import "github.com/anatolykoptev/go_research/internal/engine"

// EventType enumerates the stages of one synthesis stream.
type EventType string

const (
	// EventResults carries the merged, ranked result set, emitted exactly
	// once before any synthesis output.
	EventResults EventType = "results"
	// EventSummaryStart marks the beginning of synthesis.
	EventSummaryStart EventType = "summary-start"
	// EventSummaryChunk carries one incremental text fragment.
	EventSummaryChunk EventType = "summary-chunk"
	// EventError reports a synthesis failure. The stream still terminates
	// with EventSummaryDone afterwards.
	EventError EventType = "error"
	// EventSummaryDone terminates the stream and carries the id of the
	// persisted assistant message, or 0 if persistence failed.
	EventSummaryDone EventType = "summary-done"
)

// Event is one item of the synthesis stream.
type Event struct {
	Type      EventType             `json:"type"`
	Results   []engine.SearchResult `json:"results,omitempty"`
	Text      string                `json:"text,omitempty"`
	MessageID int64                 `json:"message_id,omitempty"`
}
