package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	list, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://en.wikipedia.org/wiki/Formula_One"}, list.URLs())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `
sources:
  - url: https://en.wikipedia.org/wiki/Formula_One
    render_js: false
  - url: " https://www.formula1.com/en/latest/all "
    render_js: true
  - url: https://en.wikipedia.org/wiki/Formula_One
  - url: https://www.skysports.com/f1
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	list, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://en.wikipedia.org/wiki/Formula_One",
		"https://www.formula1.com/en/latest/all",
		"https://www.skysports.com/f1",
	}, list.URLs())

	render := list.RenderJS(true)
	assert.False(t, render("https://en.wikipedia.org/wiki/Formula_One"))
	assert.True(t, render("https://www.formula1.com/en/latest/all"))
	assert.True(t, render("https://www.skysports.com/f1"))
}

func TestParseRejectsBadURL(t *testing.T) {
	_, err := Parse([]byte("sources:\n  - url: ftp://example.com/file\n"))
	assert.Error(t, err)
}

func TestParseRejectsEmpty(t *testing.T) {
	_, err := Parse([]byte("sources: []\n"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromURLs(t *testing.T) {
	list, err := FromURLs([]string{"https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a"}, list.URLs())

	_, err = FromURLs([]string{"not a url"})
	assert.Error(t, err)
}
