package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CharsPerWord converts character budgets into word budgets.
const CharsPerWord = 6

// TextChunk is one window of words. StartChar and EndChar are rune offsets
// into the source text of the first word's start and the last word's end.
type TextChunk struct {
	Index     int
	Content   string
	StartChar int
	EndChar   int
}

type wordSpan struct {
	text  string
	start int
	end   int
}

// SplitWords windows text by words. chunkSize and overlap are character
// budgets; a window holds chunkSize/6 words and advances by
// (chunkSize-overlap)/6 words, so consecutive windows share overlap/6 words.
// Windows start at every step until the words run out; empty windows are
// skipped and indexes stay gapless.
func SplitWords(text string, chunkSize int, overlap int) []TextChunk {
	words := splitWordSpans(text)
	if len(words) == 0 {
		return nil
	}

	wordsPerChunk, step := windowSize(chunkSize, overlap)
	chunks := make([]TextChunk, 0, WindowCount(len(words), chunkSize, overlap))
	for i := 0; i < len(words); i += step {
		end := i + wordsPerChunk
		if end > len(words) {
			end = len(words)
		}

		window := words[i:end]
		parts := make([]string, len(window))
		for j, w := range window {
			parts[j] = w.text
		}
		content := strings.TrimSpace(strings.Join(parts, " "))
		if content == "" {
			continue
		}

		chunks = append(chunks, TextChunk{
			Index:     len(chunks),
			Content:   content,
			StartChar: window[0].start,
			EndChar:   window[len(window)-1].end,
		})
	}

	return chunks
}

// WindowCount is the number of windows SplitWords produces for n words.
func WindowCount(n int, chunkSize int, overlap int) int {
	if n <= 0 {
		return 0
	}
	_, step := windowSize(chunkSize, overlap)
	return (n + step - 1) / step
}

// windowSize converts character budgets into words per window and words per step.
func windowSize(chunkSize int, overlap int) (int, int) {
	wordsPerChunk := chunkSize / CharsPerWord
	if wordsPerChunk <= 0 {
		wordsPerChunk = 1
	}
	step := wordsPerChunk - overlap/CharsPerWord
	if step <= 0 {
		step = wordsPerChunk // fallback if overlap >= chunkSize
	}
	return wordsPerChunk, step
}

func splitWordSpans(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	runeIdx := 0
	byteStart := 0

	for byteIdx, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, wordSpan{text: text[byteStart:byteIdx], start: start, end: runeIdx})
				start = -1
			}
		} else if start < 0 {
			start = runeIdx
			byteStart = byteIdx
		}
		runeIdx++
	}
	if start >= 0 {
		spans = append(spans, wordSpan{text: text[byteStart:], start: start, end: runeIdx})
	}
	return spans
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// Truncate cuts text to at most max runes.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}
