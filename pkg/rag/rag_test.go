package rag

import (
	"strings"
	"testing"

	"ragchat-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := NewClassifier([]string{"Document", "pdf", " summarize "})

	tests := []struct {
		query string
		want  QueryKind
	}{
		{"What does the PDF say about pricing?", QueryDocument},
		{"please summarize, thanks", QueryDocument},
		{"documentation is nice", QueryGeneral},
		{"how are you today", QueryGeneral},
		{"", QueryGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.query))
		})
	}
}

func TestGateUsesLowerThresholdForDocumentQueries(t *testing.T) {
	gate := &Gate{
		Classifier:        NewClassifier([]string{"document"}),
		DocumentThreshold: 0.3,
		GeneralThreshold:  0.5,
	}
	results := []*entity.SearchResult{
		{Title: "a", Similarity: 0.7},
		{Title: "b", Similarity: 0.4},
		{Title: "c", Similarity: 0.1},
	}

	kept, kind := gate.Apply("what is in my document", results)
	assert.Equal(t, QueryDocument, kind)
	assert.Len(t, kept, 2)

	kept, kind = gate.Apply("what is the capital of France", results)
	assert.Equal(t, QueryGeneral, kind)
	assert.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].Title)
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("é", 250)

	assert.Equal(t, "short", Excerpt("short", 200))
	assert.Equal(t, strings.Repeat("é", 200)+"...", Excerpt(long, 200))
	assert.Equal(t, strings.Repeat("é", 200), Excerpt(strings.Repeat("é", 200), 0))
}

func TestBuildCitations(t *testing.T) {
	url := "https://example.com/handbook"
	citations := BuildCitations([]*entity.SearchResult{
		{Title: "Handbook", Content: "Vacation policy", SourceUrl: &url, ChunkIndex: 2, Similarity: 0.8},
	}, 200)

	assert.Len(t, citations, 1)
	assert.Equal(t, "Handbook", citations[0].Title)
	assert.Equal(t, "Vacation policy", citations[0].Excerpt)
	assert.Equal(t, &url, citations[0].SourceUrl)
	assert.Equal(t, 2, citations[0].ChunkIndex)
}
