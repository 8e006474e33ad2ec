package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanStripsMarkupAndScripts(t *testing.T) {
	html := `<html><head><title>DRS</title><style>body{color:red}</style></head>
<body>
  <nav>Home | About</nav>
  <script>var tracking = 1;</script>
  <p>The   Drag Reduction System
     opens a flap in the rear wing.</p>
  <noscript>enable js</noscript>
  <p>It is used on designated straights.</p>
  <footer>copyright</footer>
</body></html>`

	text := Clean(html)

	assert.Equal(t, "The Drag Reduction System\nopens a flap in the rear wing.\nIt is used on designated straights.", text)
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "Home | About")
}

func TestCleanPrefersMainContent(t *testing.T) {
	article := strings.Repeat("Formula One is the highest class of international racing. ", 5)
	html := `<html><body><div class="banner">Donate today</div><main><p>` + article + `</p></main></body></html>`

	text := Clean(html)
	assert.Equal(t, strings.TrimSpace(article), text)
}

func TestCleanShortMainFallsBackToBody(t *testing.T) {
	html := "<html><body><main>tiny</main>\n<div>other text</div></body></html>"
	assert.Equal(t, "tiny\nother text", Clean(html))
}

func TestCleanDegenerateInput(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "", Clean("<html><body><script>x()</script></body></html>"))
	assert.Equal(t, "plain words", Clean("plain   words"))
}
