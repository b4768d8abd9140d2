package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go-kit/llm"
)

// rewriteQueryPrompt converts a conversational query to a search-engine-optimized form.
// Args: original query.
const rewriteQueryPrompt = `Rewrite the following query into a concise, search-engine-optimized form.
Output ONLY the rewritten query — no explanation, no punctuation at the end, no quotes.
Keep it under 10 words. Use English keywords even if the input is in another language.

Query: %s`

// RewriteQuery uses the LLM to convert a conversational query into a
// search-optimized form. Any failure falls back to the original query.
func RewriteQuery(ctx context.Context, query string) string {
	if !cfg.QueryRewrite || cfg.LLMClient == nil {
		return query
	}

	metrics.LLMCalls.Add(1)
	raw, err := cfg.LLMClient.Complete(ctx, "", fmt.Sprintf(rewriteQueryPrompt, query),
		llm.WithChatTemperature(0.3),
		llm.WithChatMaxTokens(100),
	)
	if err != nil {
		metrics.LLMErrors.Add(1)
		return query
	}

	rewritten := strings.TrimSpace(stripFences(raw))
	if rewritten == "" || len(rewritten) > 200 || strings.Contains(rewritten, "\n") {
		return query
	}
	return rewritten
}

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
