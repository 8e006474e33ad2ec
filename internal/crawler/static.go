package crawler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"rag-chat-platform/utils"
)

// CollyFetcher downloads a single page over plain HTTP without running scripts
type CollyFetcher struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

func NewCollyFetcher(timeout time.Duration) *CollyFetcher {
	return &CollyFetcher{Timeout: timeout}
}

func (f *CollyFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", err
	}

	// A fresh collector per fetch: no visited-URL state leaks between runs
	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.MaxDepth(1),
	)
	if f.Transport != nil {
		c.WithTransport(f.Transport)
	}
	if f.Timeout > 0 {
		c.SetRequestTimeout(f.Timeout)
	} else {
		c.SetRequestTimeout(60 * time.Second)
	}
	c.UserAgent = browserUserAgent

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	var (
		body    []byte
		bodyErr error
	)
	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
			bodyErr = fmt.Errorf("unsupported content type %q", contentType)
			return
		}

		// gzip is handled by the transport, brotli is not
		decoded, err := utils.DecodeContent(r.Body, r.Headers.Get("Content-Encoding"))
		if err != nil {
			bodyErr = err
			return
		}

		// Detect and decode charset to UTF-8
		utf8Reader, err := charset.NewReader(bytes.NewReader(decoded), contentType)
		if err == nil {
			if converted, readErr := io.ReadAll(utf8Reader); readErr == nil {
				decoded = converted
			}
		}
		body = decoded
	})

	if err := c.Visit(pageURL); err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	c.Wait()

	if bodyErr != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, bodyErr)
	}
	if body == nil {
		return "", fmt.Errorf("fetch %s: empty response", pageURL)
	}
	return string(body), nil
}
