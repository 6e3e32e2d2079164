package utils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplitWordsCounts(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"empty", 0, 0},
		{"single word", 1, 1},
		{"exactly one window", 83, 2},
		{"under one step", 75, 1},
		{"one thousand words", 1000, 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitWords(words(tt.words), 500, 50)
			assert.Len(t, chunks, tt.want)
			assert.Equal(t, tt.want, WindowCount(tt.words, 500, 50))
			assert.Equal(t, len(chunks), cap(chunks), "windows are preallocated exactly")
		})
	}
}

func TestSplitWordsWindows(t *testing.T) {
	chunks := SplitWords(words(1000), 500, 50)
	require.NotEmpty(t, chunks)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		fields := strings.Fields(c.Content)
		assert.Equal(t, fmt.Sprintf("w%d", i*75), fields[0])
		if i < len(chunks)-2 {
			assert.Len(t, fields, 83)
		}
		if i > 0 {
			prev := strings.Fields(chunks[i-1].Content)
			assert.Equal(t, prev[75:], fields[:8], "consecutive windows share 8 words")
			assert.GreaterOrEqual(t, c.StartChar, chunks[i-1].StartChar)
			assert.GreaterOrEqual(t, c.EndChar, chunks[i-1].EndChar)
			assert.Less(t, c.StartChar, chunks[i-1].EndChar)
		}
	}

	source := words(1000)
	assert.Equal(t, 0, chunks[0].StartChar)
	assert.Equal(t, len(source), chunks[len(chunks)-1].EndChar)
}

func TestSplitWordsOffsetsPointIntoSource(t *testing.T) {
	text := "  héllo   wörld\n\nthird\tword  "
	chunks := SplitWords(text, 12, 0)
	require.Len(t, chunks, 2)

	runes := []rune(text)
	assert.Equal(t, "héllo wörld", chunks[0].Content)
	assert.Equal(t, "héllo", string(runes[chunks[0].StartChar:chunks[0].StartChar+5]))
	assert.Equal(t, "third word", chunks[1].Content)
	assert.Equal(t, "word", string(runes[chunks[1].EndChar-4:chunks[1].EndChar]))
}

func TestSplitWordsWhitespaceOnly(t *testing.T) {
	assert.Empty(t, SplitWords(" \n\t ", 500, 50))
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "", Truncate("héllo", 0))
}
