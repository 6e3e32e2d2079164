package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const docxDocumentXMLPath = "word/document.xml"

var (
	// <w:t>text</w:t> with any attributes
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// paragraph boundaries become newlines
	wpEnd = regexp.MustCompile(`</w:p>`)
)

func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		docXML, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		return docxText(string(docXML)), nil
	}
	return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentXMLPath)
}

func docxText(docXML string) string {
	var b strings.Builder
	for _, para := range wpEnd.Split(docXML, -1) {
		runs := wtTag.FindAllStringSubmatch(para, -1)
		if len(runs) == 0 {
			continue
		}
		for _, run := range runs {
			b.WriteString(html.UnescapeString(run[1]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
