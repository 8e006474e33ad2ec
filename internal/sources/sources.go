// Package sources reads the list of pages to ingest.
package sources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"rag-chat-platform/internal/crawler"
)

// DefaultURLs is used when no sources file is configured
var DefaultURLs = []string{
	"https://en.wikipedia.org/wiki/Formula_One",
}

// Source is one page to ingest
type Source struct {
	URL string `yaml:"url"`
	// RenderJS overrides the global RENDER_JS setting for this page
	RenderJS *bool `yaml:"render_js,omitempty"`
}

// File is the layout of a sources YAML file:
//
//	sources:
//	  - url: https://en.wikipedia.org/wiki/Formula_One
//	  - url: https://www.formula1.com/en/latest/all
//	    render_js: true
type File struct {
	Sources []Source `yaml:"sources"`
}

// List is an ordered, de-duplicated set of sources
type List []Source

// Load reads and validates a sources file. An empty path yields DefaultURLs.
func Load(path string) (List, error) {
	if path == "" {
		return Defaults(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML source definitions
func Parse(data []byte) (List, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	seen := make(map[string]bool, len(f.Sources))
	list := make(List, 0, len(f.Sources))
	for i, s := range f.Sources {
		s.URL = strings.TrimSpace(s.URL)
		if err := crawler.ValidateURL(s.URL); err != nil {
			return nil, fmt.Errorf("source %d: %w", i, err)
		}
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		list = append(list, s)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("sources file lists no URLs")
	}
	return list, nil
}

// FromURLs wraps plain URLs, validating each
func FromURLs(urls []string) (List, error) {
	list := make(List, 0, len(urls))
	for _, u := range urls {
		if err := crawler.ValidateURL(u); err != nil {
			return nil, err
		}
		list = append(list, Source{URL: strings.TrimSpace(u)})
	}
	return list, nil
}

func Defaults() List {
	list := make(List, len(DefaultURLs))
	for i, u := range DefaultURLs {
		list[i] = Source{URL: u}
	}
	return list
}

// URLs returns the page URLs in order
func (l List) URLs() []string {
	urls := make([]string, len(l))
	for i, s := range l {
		urls[i] = s.URL
	}
	return urls
}

// RenderJS returns a crawler.Switch predicate honouring per-source overrides
func (l List) RenderJS(fallback bool) func(string) bool {
	overrides := make(map[string]bool)
	for _, s := range l {
		if s.RenderJS != nil {
			overrides[s.URL] = *s.RenderJS
		}
	}
	return func(pageURL string) bool {
		if v, ok := overrides[pageURL]; ok {
			return v
		}
		return fallback
	}
}
