package engine

import "strings"

// --- Core search types ---

// SearchResult is the normalized unit every adapter produces.
// URL is the dedup key within one retrieval pass; results are never stored
// on their own, only serialized as provenance on an assistant message.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine"`
}

// Timeframe restricts a search to recent results.
type Timeframe string

const (
	TimeframeNone  Timeframe = ""
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// ParseTimeframe maps a request string onto a known timeframe.
// Unrecognized values degrade to none — no filter applied.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case TimeframeDay:
		return TimeframeDay
	case TimeframeWeek:
		return TimeframeWeek
	case TimeframeMonth:
		return TimeframeMonth
	}
	return TimeframeNone
}

// --- Provider configuration ---

// ProviderKind discriminates built-in integrations from user-declared APIs.
type ProviderKind string

const (
	KindNative  ProviderKind = "native"
	KindGeneric ProviderKind = "generic"
)

// NativeID selects one of the built-in adapters. Stored provider rows carry
// a symbolic string; it is resolved to a NativeID once at load time, never
// string-matched deeper in the call path.
type NativeID string

const (
	NativeLocalArchive  NativeID = "local"
	NativeWeb           NativeID = "web"
	NativeSearxng       NativeID = "searxng"
	NativeWikipedia     NativeID = "wikipedia"
	NativeReddit        NativeID = "reddit"
	NativeStackExchange NativeID = "stackexchange"
	NativeMojeek        NativeID = "mojeek"
	NativeQwant         NativeID = "qwant"
	NativeTwitter       NativeID = "twitter"
)

// ProviderConfig is one row of the providers table, treated as an immutable
// value per retrieval call.
//
// For generic providers APIURL is a URL template containing a {q}
// placeholder. For native providers it carries the symbolic adapter
// identifier (e.g. "local", "web", "searxng").
type ProviderConfig struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Kind        ProviderKind `json:"kind"`
	APIURL      string       `json:"api_url,omitempty"`
	APIHeaders  string       `json:"api_headers,omitempty"` // serialized JSON object
	ResultPath  string       `json:"result_path,omitempty"`
	TitlePath   string       `json:"title_path,omitempty"`
	URLPath     string       `json:"url_path,omitempty"`
	ContentPath string       `json:"content_path,omitempty"`
	Enabled     bool         `json:"enabled"`
}

// --- Suggest ---

// Suggestion is one autocomplete candidate with its cross-engine frequency.
type Suggestion struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}
