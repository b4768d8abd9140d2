package research

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anatolykoptev/go_research/internal/archive"
	"github.com/anatolykoptev/go_research/internal/engine"
	"github.com/anatolykoptev/go_research/internal/llm"
)

// emptyResultsNotice is the fixed assistant reply when retrieval produced
// nothing. No model call is made for it.
const emptyResultsNotice = "No search results found to summarize."

const groundingPrompt = `Based on the following search results, write a clear, concise summary answering my latest prompt: %q.
Ground every claim in the snippets below and mention which sources support the key points.

%s`

// Request is one research turn.
type Request struct {
	ConversationID int64
	Query          string
	Timeframe      engine.Timeframe
	ProviderIDs    []int64 // empty = all enabled providers
	Deep           bool    // fetch full page content for the top results
}

// Orchestrator runs the retrieve-then-synthesize pipeline and persists both
// sides of each turn.
type Orchestrator struct {
	store    *archive.Store
	streamer llm.Streamer
}

// NewOrchestrator wires an orchestrator. The streamer may be nil, in which
// case synthesis degrades to an error event while retrieval still works.
func NewOrchestrator(store *archive.Store, streamer llm.Streamer) *Orchestrator {
	return &Orchestrator{store: store, streamer: streamer}
}

// Run executes one research turn, invoking emit for every stream event in
// order: results, then either a single summary-chunk notice (no results) or
// summary-start followed by summary-chunk/error events, and finally
// summary-done. Persistence failures are soft; the stream continues and
// summary-done reports message id 0.
func (o *Orchestrator) Run(ctx context.Context, req Request, emit func(Event)) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return fmt.Errorf("research: query is required")
	}

	// The user turn is recorded before retrieval. Best-effort: a broken
	// store must not keep the query from being answered.
	if _, err := o.store.AddMessage(req.ConversationID, "user", query, ""); err != nil {
		slog.Warn("user message persist failed",
			slog.Int64("conversation", req.ConversationID), slog.Any("error", err))
	}

	searchQuery := engine.RewriteQuery(ctx, query)

	providers, err := o.store.Providers(req.ProviderIDs)
	if err != nil {
		slog.Warn("provider load failed, using defaults", slog.Any("error", err))
		providers = nil
	}

	results := engine.Retrieve(ctx, providers, searchQuery, req.Timeframe)
	if max := engine.Cfg.MaxResults; len(results) > max {
		results = results[:max]
	}
	if req.Deep {
		enrichResults(ctx, results)
	}

	emit(Event{Type: EventResults, Results: results})

	// The empty path never starts synthesis: just the fixed notice.
	if len(results) == 0 {
		emit(Event{Type: EventSummaryChunk, Text: emptyResultsNotice})
		id := o.persistAssistant(req.ConversationID, emptyResultsNotice, nil)
		emit(Event{Type: EventSummaryDone, MessageID: id})
		return nil
	}

	emit(Event{Type: EventSummaryStart})

	if o.streamer == nil {
		emit(Event{Type: EventError, Text: "no synthesis model configured"})
		emit(Event{Type: EventSummaryDone, MessageID: 0})
		return nil
	}

	// Whatever accumulated is persisted, even an empty string after a
	// stream that died before its first fragment.
	summary := o.streamSummary(ctx, req.ConversationID, query, results, emit)
	id := o.persistAssistant(req.ConversationID, summary, results)
	emit(Event{Type: EventSummaryDone, MessageID: id})
	return nil
}

// streamSummary drives the model stream, forwarding fragments as events and
// returning the accumulated text. Partial output before a stream error is
// kept; the answer so far is worth persisting.
func (o *Orchestrator) streamSummary(ctx context.Context, convID int64, query string, results []engine.SearchResult, emit func(Event)) string {
	history, err := o.store.History(convID)
	if err != nil {
		slog.Warn("history load failed", slog.Any("error", err))
	}

	messages := make([]llm.Message, 0, len(history)+1)
	for _, h := range history {
		messages = append(messages, llm.Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf(groundingPrompt, query, snippetBlock(results)),
	})

	engine.IncrLLMCalls()
	contentChan, errChan := o.streamer.Stream(ctx, messages)

	var sb strings.Builder
	for contentChan != nil || errChan != nil {
		select {
		case text, ok := <-contentChan:
			if !ok {
				contentChan = nil
				continue
			}
			sb.WriteString(text)
			emit(Event{Type: EventSummaryChunk, Text: text})
		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				engine.IncrLLMErrors()
				slog.Error("synthesis stream failed", slog.Any("error", err))
				emit(Event{Type: EventError, Text: err.Error()})
			}
		case <-ctx.Done():
			emit(Event{Type: EventError, Text: ctx.Err().Error()})
			return sb.String()
		}
	}
	return sb.String()
}

// persistAssistant stores the assistant turn with its provenance. A nil
// result set serializes as an empty provenance list.
func (o *Orchestrator) persistAssistant(convID int64, content string, results []engine.SearchResult) int64 {
	sources := "[]"
	if len(results) > 0 {
		if b, err := json.Marshal(results); err == nil {
			sources = string(b)
		}
	}
	id, err := o.store.AddMessage(convID, "assistant", content, sources)
	if err != nil {
		slog.Error("assistant message persist failed", slog.Any("error", err))
		return 0
	}
	return id
}

// snippetBlock renders results into the model-facing context block.
func snippetBlock(results []engine.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[%s] %s\nURL: %s\nSnippet: %s", r.Engine, r.Title, r.URL, r.Content))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// enrichResults swaps snippets for readable full-page content on the top
// results. Fetch failures leave the original snippet in place.
func enrichResults(ctx context.Context, results []engine.SearchResult) {
	contents := engine.FetchContentsParallel(ctx, results)
	for i := range results {
		if text, ok := contents[results[i].URL]; ok && text != "" {
			results[i].Content = text
		}
	}
}
