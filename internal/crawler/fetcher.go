// Package crawler fetches source pages for ingestion and reduces them to plain text.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Fetcher retrieves the raw HTML of one page
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// ValidateURL accepts absolute http(s) URLs only
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host: %s", rawURL)
	}
	return nil
}

// Switch picks the headless browser for pages that need script rendering and
// the plain HTTP fetcher for the rest.
type Switch struct {
	Static   Fetcher
	Rendered Fetcher
	// RenderJS decides per URL; nil means always use Rendered when it is set
	RenderJS func(pageURL string) bool
}

func (s *Switch) Fetch(ctx context.Context, pageURL string) (string, error) {
	if s.Rendered != nil && (s.RenderJS == nil || s.RenderJS(pageURL)) {
		return s.Rendered.Fetch(ctx, pageURL)
	}
	return s.Static.Fetch(ctx, pageURL)
}
