package research

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/engine"
	"github.com/anatolykoptev/go_research/internal/llm"
)

type ListModelsInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"lmstudio, openai, openrouter or google (default: the configured synthesis provider)"`
	BaseURL  string `json:"base_url,omitempty" jsonschema:"Override the provider's API base URL"`
}

type ListModelsOutput struct {
	Provider string   `json:"provider"`
	Count    int      `json:"count"`
	Models   []string `json:"models"`
}

func registerListModels(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "models_list",
		Description: "List the models available from an LLM provider, for picking a synthesis model.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ListModelsInput) (*mcp.CallToolResult, ListModelsOutput, error) {
		provider := input.Provider
		baseURL := input.BaseURL
		if provider == "" {
			provider = d.LLMProvider
			if baseURL == "" {
				baseURL = d.LLMBaseURL
			}
		}
		if provider == "" {
			return nil, ListModelsOutput{}, fmt.Errorf("no provider given and none configured")
		}

		cacheKey := engine.CacheKey("models_list", provider, baseURL)
		if out, ok := engine.CacheLoadJSON[ListModelsOutput](ctx, cacheKey); ok {
			return nil, out, nil
		}

		models, err := llm.ListModels(ctx, engine.Cfg.HTTPClient, provider, baseURL, d.LLMAPIKey)
		if err != nil {
			return nil, ListModelsOutput{}, fmt.Errorf("list models: %w", err)
		}

		out := ListModelsOutput{Provider: provider, Count: len(models), Models: models}
		engine.CacheStoreJSON(ctx, cacheKey, out)
		return nil, out, nil
	})
}
