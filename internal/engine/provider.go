package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Adapter is the single capability every search source implements.
//
// The contract is fail-soft: an adapter never returns an error. Network
// failures, timeouts, parse errors and malformed upstream payloads all
// degrade to an empty slice, so one bad provider cannot abort its siblings
// or the overall request.
type Adapter interface {
	Search(ctx context.Context, query string, tf Timeframe) []SearchResult
}

// AdapterFunc adapts a plain function to the Adapter interface.
type AdapterFunc func(ctx context.Context, query string, tf Timeframe) []SearchResult

func (f AdapterFunc) Search(ctx context.Context, query string, tf Timeframe) []SearchResult {
	return f(ctx, query, tf)
}

// ResolveNativeID maps the symbolic identifier stored in a native provider
// row onto a typed NativeID. Called once at configuration load.
func ResolveNativeID(symbolic string) (NativeID, error) {
	id := NativeID(strings.ToLower(strings.TrimSpace(symbolic)))
	switch id {
	case NativeLocalArchive, NativeWeb, NativeSearxng, NativeWikipedia,
		NativeReddit, NativeStackExchange, NativeMojeek, NativeQwant, NativeTwitter:
		return id, nil
	}
	return "", fmt.Errorf("unknown native adapter %q", symbolic)
}

// ResolveAdapter turns a provider row into a concrete adapter.
// Resolution happens here, once per retrieval pass — never by string
// matching deeper in the call path.
func ResolveAdapter(pc ProviderConfig) (Adapter, error) {
	switch pc.Kind {
	case KindGeneric:
		return NewGenericAdapter(pc)
	case KindNative:
		id, err := ResolveNativeID(pc.APIURL)
		if err != nil {
			return nil, err
		}
		return nativeAdapter(id), nil
	}
	return nil, fmt.Errorf("unknown provider kind %q", pc.Kind)
}

// nativeAdapter dispatches a NativeID to its built-in implementation.
// Adding a native source means extending this closed set.
func nativeAdapter(id NativeID) Adapter {
	switch id {
	case NativeLocalArchive:
		return failSoft("archive", func(ctx context.Context, q string, tf Timeframe) ([]SearchResult, error) {
			if cfg.ArchiveSearcher == nil {
				return nil, nil
			}
			return cfg.ArchiveSearcher.Search(ctx, q, tf), nil
		})
	case NativeWeb:
		return failSoft("web", searchWeb)
	case NativeSearxng:
		return failSoft("searxng", searchSearxng)
	case NativeWikipedia:
		return failSoft("wikipedia", searchWikipedia)
	case NativeReddit:
		return failSoft("reddit", searchReddit)
	case NativeStackExchange:
		return failSoft("stackexchange", searchStackExchange)
	case NativeMojeek:
		return failSoft("mojeek", searchMojeek)
	case NativeQwant:
		return failSoft("qwant", searchQwant)
	case NativeTwitter:
		return failSoft("twitter", searchTwitter)
	}
	// Unreachable after ResolveNativeID, kept as a hard guarantee.
	return AdapterFunc(func(context.Context, string, Timeframe) []SearchResult { return nil })
}

// failSoft wraps a fallible search function into the adapter contract:
// bounded by the configured search timeout, panics contained, errors logged
// and converted to zero results.
func failSoft(name string, fn func(ctx context.Context, query string, tf Timeframe) ([]SearchResult, error)) Adapter {
	return AdapterFunc(func(ctx context.Context, query string, tf Timeframe) (out []SearchResult) {
		ctx, cancel := context.WithTimeout(ctx, cfg.SearchTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				IncrProviderFailures()
				slog.Error("adapter panic", slog.String("adapter", name), slog.Any("panic", r))
				out = nil
			}
		}()

		results, err := fn(ctx, query, tf)
		if err != nil {
			IncrProviderFailures()
			slog.Debug("adapter failed", slog.String("adapter", name), slog.Any("error", err))
			return nil
		}
		return results
	})
}
