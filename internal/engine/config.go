package engine

import (
	"net/http"
	"time"

	"github.com/anatolykoptev/go-kit/llm"
	twitter "github.com/anatolykoptev/go-twitter"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	SearxngURL      string // base URL of the self-hosted aggregator; empty disables it
	SearxngUser     string // optional basic auth
	SearxngPassword string

	StorageDir      string // directory scanned for *.db archive files
	MaxResults      int    // cap on merged results handed to the orchestrator
	MaxContentChars int    // per-page cap for fetched content
	MaxFetchURLs    int    // pages fetched for deep-mode enrichment
	SearchTimeout   time.Duration
	FetchTimeout    time.Duration

	QueryRewrite bool // rewrite conversational queries via LLM before dispatch

	HTTPClient      *http.Client
	BrowserClient   *BrowserClient  // nil = scraping adapters degrade to zero results
	TwitterClient   *twitter.Client // nil = twitter adapter disabled
	LLMClient       *llm.Client     // non-streaming client, used for query rewrite
	ArchiveSearcher Adapter         // local-archive adapter, injected to avoid a storage import cycle
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.MaxResults <= 0 {
		c.MaxResults = 15
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = 12 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.MaxContentChars <= 0 {
		c.MaxContentChars = 6000
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.SearchTimeout}
	}
	cfg = c
	Cfg = &cfg
}
