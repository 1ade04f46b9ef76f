package csvx

import (
	"context"
	"fmt"
	"log/slog"
)

// TextFetcher downloads a document as text. httpx.Client satisfies it.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Fetch downloads url and parses it. Only the download can fail; malformed rows
// are handled as in Parse.
func Fetch(ctx context.Context, f TextFetcher, url string, opts ...Option) (ParseResult, error) {
	slog.Debug("csvx: fetching", slog.String("url", url))
	text, err := f.FetchText(ctx, url)
	if err != nil {
		return ParseResult{}, fmt.Errorf("csvx: fetch %s: %w", url, err)
	}
	slog.Debug("csvx: fetched", slog.String("url", url), slog.Int("bytes", len(text)))
	return Parse(text, opts...), nil
}
