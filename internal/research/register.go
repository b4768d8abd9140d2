package research

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/archive"
)

// Deps carries everything the tool handlers need. LLM fields feed the
// model-listing tool; synthesis goes through the orchestrator's streamer.
type Deps struct {
	Store        *archive.Store
	Orchestrator *Orchestrator

	LLMProvider string
	LLMBaseURL  string
	LLMAPIKey   string
}

// RegisterTools registers the full tool surface on the given MCP server:
// research, search, suggest, fetch_page, conversation and note management,
// archive snapshots, provider configuration and model listing.
func RegisterTools(server *mcp.Server, d Deps) {
	registerResearch(server, d)
	registerSearch(server, d)
	registerSuggest(server)
	registerFetchPage(server)
	registerConversationTools(server, d)
	registerArchiveTools(server, d)
	registerProviderTools(server, d)
	registerListModels(server, d)
}
