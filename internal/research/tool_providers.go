package research

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/engine"
)

type ProviderListOutput struct {
	Count     int                     `json:"count"`
	Providers []engine.ProviderConfig `json:"providers"`
}

type ProviderAddInput struct {
	Name        string `json:"name" jsonschema:"Display name for the provider"`
	Kind        string `json:"kind" jsonschema:"native or generic"`
	APIURL      string `json:"api_url" jsonschema:"For generic: URL template with a {q} placeholder. For native: adapter id (local, web, searxng, wikipedia, reddit, stackexchange, mojeek, qwant, twitter)"`
	APIHeaders  string `json:"api_headers,omitempty" jsonschema:"Optional JSON object of extra request headers"`
	ResultPath  string `json:"result_path,omitempty" jsonschema:"Dot path to the result array in the response (generic only)"`
	TitlePath   string `json:"title_path,omitempty" jsonschema:"Dot path to the title within each result item"`
	URLPath     string `json:"url_path,omitempty" jsonschema:"Dot path to the URL within each result item"`
	ContentPath string `json:"content_path,omitempty" jsonschema:"Dot path to the snippet within each result item"`
	Enabled     *bool  `json:"enabled,omitempty" jsonschema:"Whether the provider participates in default searches (default true)"`
}

type ProviderAddOutput struct {
	ID int64 `json:"id"`
}

type ProviderDeleteInput struct {
	ID int64 `json:"id" jsonschema:"Provider id"`
}

type ProviderDeleteOutput struct {
	Deleted int64 `json:"deleted"`
}

func registerProviderTools(server *mcp.Server, d Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "provider_list",
		Description: "List all configured search providers, including disabled ones.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, ProviderListOutput, error) {
		providers, err := d.Store.ListProviders()
		if err != nil {
			return nil, ProviderListOutput{}, err
		}
		return nil, ProviderListOutput{Count: len(providers), Providers: providers}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "provider_add",
		Description: "Register a search provider: either a built-in native adapter or a generic JSON API described by a URL template and dot-path extraction rules. The configuration is validated before it is stored.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ProviderAddInput) (*mcp.CallToolResult, ProviderAddOutput, error) {
		enabled := true
		if input.Enabled != nil {
			enabled = *input.Enabled
		}
		id, err := d.Store.AddProvider(engine.ProviderConfig{
			Name:        input.Name,
			Kind:        engine.ProviderKind(input.Kind),
			APIURL:      input.APIURL,
			APIHeaders:  input.APIHeaders,
			ResultPath:  input.ResultPath,
			TitlePath:   input.TitlePath,
			URLPath:     input.URLPath,
			ContentPath: input.ContentPath,
			Enabled:     enabled,
		})
		if err != nil {
			return nil, ProviderAddOutput{}, err
		}
		return nil, ProviderAddOutput{ID: id}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "provider_delete",
		Description: "Remove a configured search provider.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input ProviderDeleteInput) (*mcp.CallToolResult, ProviderDeleteOutput, error) {
		if err := d.Store.DeleteProvider(input.ID); err != nil {
			return nil, ProviderDeleteOutput{}, fmt.Errorf("provider %d: %w", input.ID, err)
		}
		return nil, ProviderDeleteOutput{Deleted: input.ID}, nil
	})
}
