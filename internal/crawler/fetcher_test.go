package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-platform/utils"
)

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://en.wikipedia.org/wiki/Formula_One"))
	assert.NoError(t, ValidateURL("http://localhost:8080/page"))
	assert.Error(t, ValidateURL("ftp://example.com/file"))
	assert.Error(t, ValidateURL("/relative/path"))
	assert.Error(t, ValidateURL("https://"))
}

func TestCollyFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, "<html><body><p>Lewis Hamilton</p></body></html>")
		case "/brotli":
			body, _ := utils.Compress([]byte("<html><body><p>compressed</p></body></html>"), utils.EncodingBrotli)
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("Content-Encoding", "br")
			w.Write(body)
		case "/image":
			w.Header().Set("Content-Type", "image/png")
			w.Write([]byte{0x89, 0x50})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewCollyFetcher(5 * time.Second)

	t.Run("html page", func(t *testing.T) {
		html, err := f.Fetch(context.Background(), srv.URL+"/page")
		require.NoError(t, err)
		assert.Equal(t, "Lewis Hamilton", Clean(html))
	})

	t.Run("brotli body", func(t *testing.T) {
		html, err := f.Fetch(context.Background(), srv.URL+"/brotli")
		require.NoError(t, err)
		assert.Equal(t, "compressed", Clean(html))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/missing")
		assert.Error(t, err)
	})

	t.Run("non html", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), srv.URL+"/image")
		assert.Error(t, err)
	})

	t.Run("bad url", func(t *testing.T) {
		_, err := f.Fetch(context.Background(), "not a url")
		assert.Error(t, err)
	})
}

type stubFetcher struct {
	name  string
	calls []string
}

func (s *stubFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	s.calls = append(s.calls, pageURL)
	return s.name, nil
}

func TestSwitch(t *testing.T) {
	static := &stubFetcher{name: "static"}
	rendered := &stubFetcher{name: "rendered"}

	sw := &Switch{
		Static:   static,
		Rendered: rendered,
		RenderJS: func(u string) bool { return u == "https://spa.example.com" },
	}

	got, _ := sw.Fetch(context.Background(), "https://spa.example.com")
	assert.Equal(t, "rendered", got)
	got, _ = sw.Fetch(context.Background(), "https://static.example.com")
	assert.Equal(t, "static", got)

	onlyStatic := &Switch{Static: static}
	got, _ = onlyStatic.Fetch(context.Background(), "https://spa.example.com")
	assert.Equal(t, "static", got)
}

// Needs a local Chrome; skipped in containers without one.
func TestChromeFetcherRendersScripts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><div id="app"></div>
<script>document.getElementById("app").textContent = "rendered by script";</script></body></html>`)
	}))
	defer srv.Close()

	f := NewChromeFetcher(10 * time.Second)
	html, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Skipf("JS-render test skipped due to environment: %v", err)
	}
	assert.Contains(t, Clean(html), "rendered by script")
}
