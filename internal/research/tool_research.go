package research

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/engine"
)

type ResearchInput struct {
	Query          string  `json:"query" jsonschema:"The research question or topic"`
	ConversationID int64   `json:"conversation_id,omitempty" jsonschema:"Existing conversation id to continue (omit to start a new one)"`
	Timeframe      string  `json:"timeframe,omitempty" jsonschema:"Restrict to recent results: day, week or month"`
	Providers      []int64 `json:"providers,omitempty" jsonschema:"Provider ids to query (default: all enabled)"`
	Deep           bool    `json:"deep,omitempty" jsonschema:"Fetch full page content for the top results before summarizing"`
}

type ResearchOutput struct {
	ConversationID int64                 `json:"conversation_id"`
	MessageID      int64                 `json:"message_id"`
	Summary        string                `json:"summary"`
	Results        []engine.SearchResult `json:"results"`
	Errors         []string              `json:"errors,omitempty"`
}

func registerResearch(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "research",
		Description: "Run a full research turn: search all configured providers (web engines, APIs, local research archives) concurrently, then synthesize an LLM summary grounded in the merged results. Persists the exchange in the conversation, so follow-up questions keep context.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ResearchInput) (*mcp.CallToolResult, ResearchOutput, error) {
		if input.Query == "" {
			return nil, ResearchOutput{}, fmt.Errorf("query is required")
		}

		convID := input.ConversationID
		if convID == 0 {
			id, err := d.Store.CreateConversation(engine.TruncateAtWord(input.Query, 60))
			if err != nil {
				return nil, ResearchOutput{}, fmt.Errorf("create conversation: %w", err)
			}
			convID = id
		}

		out := ResearchOutput{ConversationID: convID}
		err := d.Orchestrator.Run(ctx, Request{
			ConversationID: convID,
			Query:          input.Query,
			Timeframe:      engine.ParseTimeframe(input.Timeframe),
			ProviderIDs:    input.Providers,
			Deep:           input.Deep,
		}, func(ev Event) {
			switch ev.Type {
			case EventResults:
				out.Results = ev.Results
			case EventSummaryChunk:
				out.Summary += ev.Text
			case EventError:
				out.Errors = append(out.Errors, ev.Text)
			case EventSummaryDone:
				out.MessageID = ev.MessageID
			}
		})
		if err != nil {
			return nil, ResearchOutput{}, err
		}
		return nil, out, nil
	})
}
