// Package parser turns uploaded files into plain text for ingestion.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const MaxFileSize = 10 * 1024 * 1024 // 10MB

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file size must be less than 10MB")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidJSON     = errors.New("invalid JSON file")
	ErrNoText          = errors.New("no text could be extracted")
)

var allowedExtensions = map[string]string{
	".txt":  "text/plain",
	".log":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".json": "application/json",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type ParsedDocument struct {
	Title    string
	Content  string
	FileType string
	FileSize int64
}

// ValidateFile checks size and extension before any parsing happens.
func ValidateFile(filename string, size int64) error {
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(filename))
	}
	return nil
}

// Parse extracts text from content. The extension of filename selects the format.
func Parse(filename string, content []byte) (*ParsedDocument, error) {
	if err := ValidateFile(filename, int64(len(content))); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	doc := &ParsedDocument{
		Title:    strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		FileType: allowedExtensions[ext],
		FileSize: int64(len(content)),
	}

	var (
		text string
		err  error
	)
	switch ext {
	case ".md":
		text = plainText(content)
		if title := markdownTitle(text); title != "" {
			doc.Title = title
		}
	case ".json":
		text, err = prettyJSON(content)
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".xlsx":
		text, err = extractExcel(content)
	default:
		text = plainText(content)
	}
	if err != nil {
		return nil, err
	}

	doc.Content = strings.TrimSpace(text)
	if doc.Content == "" {
		return nil, ErrNoText
	}
	return doc, nil
}

func plainText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}

func prettyJSON(content []byte) (string, error) {
	if !json.Valid(content) {
		return "", ErrInvalidJSON
	}
	var out bytes.Buffer
	if err := json.Indent(&out, content, "", "  "); err != nil {
		return "", ErrInvalidJSON
	}
	return out.String(), nil
}

// markdownTitle returns the first "# " heading, or a front matter title.
func markdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}

	if !strings.HasPrefix(content, "---") {
		return ""
	}
	rest := strings.TrimPrefix(content, "---")
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return ""
	}
	var front struct {
		Title string `yaml:"title"`
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &front); err != nil {
		return ""
	}
	return strings.TrimSpace(front.Title)
}
