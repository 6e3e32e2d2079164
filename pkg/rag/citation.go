package rag

import (
	"unicode/utf8"

	"ragchat-be/internal/entity"
	"ragchat-be/pkg/utils"
)

const DefaultExcerptLength = 200

// Excerpt shortens content to n runes and marks the cut with "...".
func Excerpt(content string, n int) string {
	if n <= 0 {
		n = DefaultExcerptLength
	}
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	return utils.Truncate(content, n) + "..."
}

func BuildCitations(results []*entity.SearchResult, excerptLength int) []entity.Citation {
	citations := make([]entity.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, entity.Citation{
			DocumentId: r.DocumentId,
			Title:      r.Title,
			Excerpt:    Excerpt(r.Content, excerptLength),
			SourceUrl:  r.SourceUrl,
			ChunkIndex: r.ChunkIndex,
			Similarity: r.Similarity,
		})
	}
	return citations
}
