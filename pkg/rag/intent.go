package rag

import (
	"strings"
	"unicode"

	"ragchat-be/internal/entity"
)

type QueryKind string

const (
	QueryGeneral  QueryKind = "general"
	QueryDocument QueryKind = "document"
)

// Classifier tags a query as document-related when any word hits the keyword vocabulary.
type Classifier struct {
	keywords map[string]struct{}
}

func NewClassifier(keywords []string) *Classifier {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			set[k] = struct{}{}
		}
	}
	return &Classifier{keywords: set}
}

func (c *Classifier) Classify(query string) QueryKind {
	words := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, ok := c.keywords[w]; ok {
			return QueryDocument
		}
	}
	return QueryGeneral
}

// Gate drops results below the similarity threshold for the query's kind.
type Gate struct {
	Classifier        *Classifier
	DocumentThreshold float64
	GeneralThreshold  float64
}

func (g *Gate) Threshold(kind QueryKind) float64 {
	if kind == QueryDocument {
		return g.DocumentThreshold
	}
	return g.GeneralThreshold
}

// Apply keeps results in their original order.
func (g *Gate) Apply(query string, results []*entity.SearchResult) ([]*entity.SearchResult, QueryKind) {
	kind := g.Classifier.Classify(query)
	threshold := g.Threshold(kind)

	kept := make([]*entity.SearchResult, 0, len(results))
	for _, r := range results {
		if r.Similarity >= threshold {
			kept = append(kept, r)
		}
	}
	return kept, kind
}
