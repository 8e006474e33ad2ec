package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c, err := New(512, 100)
		require.NoError(t, err)
		assert.Equal(t, 512, c.Size())
		assert.Equal(t, 100, c.Overlap())
	})

	t.Run("overlap equal to size", func(t *testing.T) {
		_, err := New(100, 100)
		assert.Error(t, err)
	})

	t.Run("overlap larger than size", func(t *testing.T) {
		_, err := New(100, 150)
		assert.Error(t, err)
	})

	t.Run("non-positive size", func(t *testing.T) {
		_, err := New(0, 0)
		assert.Error(t, err)
	})

	t.Run("negative overlap", func(t *testing.T) {
		_, err := New(10, -1)
		assert.Error(t, err)
	})
}

func TestSplitEmpty(t *testing.T) {
	chunks, err := Split("", 512, 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitShorterThanSize(t *testing.T) {
	chunks, err := Split("short text", 512, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitExpectedCount(t *testing.T) {
	text := strings.Repeat("a", 2000)
	chunks, err := Split(text, 512, 100)
	require.NoError(t, err)

	// windows start at 0, 412, 824, 1236, 1648
	assert.Len(t, chunks, 5)
	assert.Len(t, chunks[4], 352)
}

func TestSplitProperties(t *testing.T) {
	text := buildText(3217)

	cases := []struct{ size, overlap int }{
		{1, 0}, {7, 0}, {7, 3}, {64, 16}, {512, 100}, {512, 511}, {4000, 10},
	}

	for _, tc := range cases {
		chunks, err := Split(text, tc.size, tc.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)

		var rebuilt strings.Builder
		for i, ch := range chunks {
			assert.LessOrEqual(t, utf8.RuneCountInString(ch), tc.size)
			if i == 0 {
				rebuilt.WriteString(ch)
				continue
			}
			prev := []rune(chunks[i-1])
			cur := []rune(ch)
			assert.Equal(t, string(prev[len(prev)-tc.overlap:]), string(cur[:tc.overlap]),
				"size=%d overlap=%d chunk=%d", tc.size, tc.overlap, i)
			rebuilt.WriteString(string(cur[tc.overlap:]))
		}
		assert.Equal(t, text, rebuilt.String(), "size=%d overlap=%d", tc.size, tc.overlap)
	}
}

func TestSplitMultibyte(t *testing.T) {
	text := strings.Repeat("Grand Prix de Monaco – Fórmula Uno ", 20)
	chunks, err := Split(text, 50, 10)
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.True(t, utf8.ValidString(ch))
	}
}

func TestChunkDocument(t *testing.T) {
	c, err := New(4, 1)
	require.NoError(t, err)

	chunks := c.ChunkDocument("https://example.com/f1", "abcdefghij")
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Text)
	assert.Equal(t, "defg", chunks[1].Text)
	assert.Equal(t, "ghij", chunks[2].Text)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.SequenceIndex)
		assert.Equal(t, "https://example.com/f1", ch.SourceURL)
	}
}

func buildText(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[(i*7+i/3)%len(alphabet)])
	}
	return b.String()
}
