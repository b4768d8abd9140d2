package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// ListModels queries a provider for its available model identifiers.
// OpenAI-compatible providers expose GET /models; Google exposes its own
// listing with "models/" prefixed names, which are stripped here.
func ListModels(ctx context.Context, httpc *http.Client, provider, baseURL, apiKey string) ([]string, error) {
	if httpc == nil {
		httpc = http.DefaultClient
	}
	if provider == ProviderGoogle {
		return listGoogleModels(ctx, httpc, baseURL, apiKey)
	}
	return listOpenAIModels(ctx, httpc, provider, baseURL, apiKey)
}

func listOpenAIModels(ctx context.Context, httpc *http.Client, provider, baseURL, apiKey string) ([]string, error) {
	if baseURL == "" {
		switch provider {
		case ProviderOpenAI:
			baseURL = defaultOpenAIBase
		case ProviderOpenRouter:
			baseURL = defaultOpenRouterBase
		case ProviderLMStudio:
			baseURL = defaultLMStudioBase
		default:
			return nil, fmt.Errorf("llm: unknown provider %q", provider)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(baseURL, "/")+"/models", nil)
	if err != nil {
		return nil, err
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var payload struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("llm: decode models: %w", err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}

func listGoogleModels(ctx context.Context, httpc *http.Client, baseURL, apiKey string) ([]string, error) {
	if baseURL == "" {
		baseURL = googleBase
	}
	url := strings.TrimSuffix(baseURL, "/") + "/models?key=" + apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm: list models: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("llm: decode models: %w", err)
	}

	models := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		if m.Name == "" {
			continue
		}
		models = append(models, strings.TrimPrefix(m.Name, "models/"))
	}
	sort.Strings(models)
	return models, nil
}
