package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkBasicOverlap(t *testing.T) {
	chunks, err := Chunk("a b c d e f", 4, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c d", "d e f"}, chunks)
}

func TestChunkEmptyText(t *testing.T) {
	chunks, err := Chunk("", 500, 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkWhitespaceOnlyText(t *testing.T) {
	chunks, err := Chunk("   \n\t  ", 500, 100)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunkShorterThanWindow(t *testing.T) {
	chunks, err := Chunk("une seule phrase", 500, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"une seule phrase"}, chunks)
}

func TestChunkInvalidParameters(t *testing.T) {
	_, err := Chunk("some text", 0, 0)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	_, err = Chunk("some text", 100, 100)
	assert.ErrorAs(t, err, &vErr)

	_, err = Chunk("some text", 100, 200)
	assert.ErrorAs(t, err, &vErr)

	_, err = Chunk("some text", 100, -1)
	assert.ErrorAs(t, err, &vErr)
}

func TestChunkCountForThousandWordDocument(t *testing.T) {
	words := make([]string, 1000)
	for i := range words {
		words[i] = fmt.Sprintf("mot%d", i)
	}
	text := strings.Join(words, " ")

	chunks, err := Chunk(text, 500, 100)
	require.NoError(t, err)
	// Windows start at 0, 400 and 800: ceil((1000-100)/400) = 3 chunks.
	assert.Len(t, chunks, 3)
}

func TestChunkCoversAllWords(t *testing.T) {
	words := make([]string, 137)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := strings.Join(words, " ")

	chunks, err := Chunk(text, 20, 5)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	seen := make(map[string]bool)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
		for _, w := range strings.Fields(c) {
			seen[w] = true
		}
	}
	for _, w := range words {
		assert.True(t, seen[w], "word %q missing from chunk output", w)
	}
}

func TestChunkSuccessiveWindowsOverlap(t *testing.T) {
	chunks, err := Chunk("a b c d e f g h i j", 4, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a b c d", "c d e f", "e f g h", "g h i j"}, chunks)
}
