// go_research — Metasearch & Research Archive MCP server.
//
// Fans queries out to web engines, user-declared JSON APIs and local
// research archives, then streams an LLM summary grounded in the merged
// results. Conversations, notes and provider configuration persist in
// SQLite archives that feed back into future searches.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	kitllm "github.com/anatolykoptev/go-kit/llm"
	"github.com/anatolykoptev/go-mcpserver"
	stealth "github.com/anatolykoptev/go-stealth"
	twitter "github.com/anatolykoptev/go-twitter"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_research/internal/archive"
	"github.com/anatolykoptev/go_research/internal/engine"
	"github.com/anatolykoptev/go_research/internal/llm"
	"github.com/anatolykoptev/go_research/internal/research"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8892")
)

func main() {
	store := initStore()
	defer store.Close()

	deps := initEngine(store)
	deps.Store = store

	slog.Info("starting go_research",
		slog.String("port", mcpPort),
		slog.String("storage", store.Dir()),
	)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_research",
		Version: version,
	}, nil)

	research.RegisterTools(server, deps)

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_research",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}

func initStore() *archive.Store {
	dir := env.Str("STORAGE_DIR", "./archives")
	store, err := archive.Open(dir)
	if err != nil {
		slog.Error("store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	if active := env.Str("ACTIVE_ARCHIVE", ""); active != "" {
		if err := store.LoadFrom(active); err != nil {
			slog.Warn("active archive load failed, starting empty", slog.Any("error", err))
		}
	}
	return store
}

func initEngine(store *archive.Store) research.Deps {
	c := engine.Config{
		SearxngURL:      env.Str("SEARXNG_URL", ""),
		SearxngUser:     env.Str("SEARXNG_USER", ""),
		SearxngPassword: env.Str("SEARXNG_PASSWORD", ""),
		StorageDir:      store.Dir(),
		MaxResults:      env.Int("MAX_RESULTS", 15),
		MaxContentChars: env.Int("MAX_CONTENT_CHARS", 6000),
		MaxFetchURLs:    env.Int("MAX_FETCH_URLS", 8),
		SearchTimeout:   env.Duration("SEARCH_TIMEOUT", 12*time.Second),
		FetchTimeout:    env.Duration("FETCH_TIMEOUT", 10*time.Second),
		QueryRewrite:    env.Str("QUERY_REWRITE", "false") == "true",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
		ArchiveSearcher: archive.NewSearcher(store.Dir()),
	}

	bc, err := stealth.NewClient(stealth.WithTimeout(15))
	if err != nil {
		slog.Error("stealth client init failed", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
		slog.Info("stealth browser client initialized")
	}

	// Twitter client (optional — guest mode if no accounts configured)
	accounts := twitter.ParseAccounts(env.Str("TWITTER_ACCOUNTS", ""))
	openCount := 2
	if len(accounts) > 0 {
		openCount = 0
	}
	tw, err := twitter.NewClient(twitter.ClientConfig{
		Accounts:         accounts,
		OpenAccountCount: openCount,
	})
	if err != nil {
		slog.Warn("twitter client init failed", slog.Any("error", err))
	} else {
		c.TwitterClient = tw
	}

	provider := env.Str("LLM_PROVIDER", llm.ProviderLMStudio)
	baseURL := env.Str("LLM_BASE_URL", "")
	apiKey := env.Str("LLM_API_KEY", "")
	model := env.Str("LLM_MODEL", "")

	var streamer llm.Streamer
	if model != "" {
		sc, err := llm.NewClient(llm.ClientConfig{
			Provider:    provider,
			BaseURL:     baseURL,
			APIKey:      apiKey,
			Model:       model,
			Temperature: env.Float("LLM_TEMPERATURE", 0.3),
			MaxTokens:   env.Int("LLM_MAX_TOKENS", 4096),
		})
		if err != nil {
			slog.Warn("synthesis client init failed", slog.Any("error", err))
		} else {
			streamer = sc
			slog.Info("synthesis model ready", slog.String("provider", provider), slog.String("model", model))
		}

		// Query rewriting reuses the shared one-shot client; Google has no
		// OpenAI-compatible completion path here, so rewriting stays off.
		if c.QueryRewrite && provider != llm.ProviderGoogle {
			c.LLMClient = kitllm.NewClient(baseURL, apiKey, model,
				kitllm.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
			)
		}
	}

	engine.Init(c)

	engine.InitCache(
		env.Str("REDIS_URL", ""),
		env.Duration("CACHE_TTL", 15*time.Minute),
		env.Int("CACHE_MAX_ENTRIES", 1000),
		env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
	)

	return research.Deps{
		Orchestrator: research.NewOrchestrator(store, streamer),
		LLMProvider:  provider,
		LLMBaseURL:   baseURL,
		LLMAPIKey:    apiKey,
	}
}
