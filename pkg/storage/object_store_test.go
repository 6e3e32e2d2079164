package storage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDocumentKey(t *testing.T) {
	userId := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	docId := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	prefix := "users/11111111-1111-1111-1111-111111111111/documents/22222222-2222-2222-2222-222222222222/"

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain", "notes.pdf", prefix + "notes.pdf"},
		{"strips directories", "../../etc/passwd", prefix + "passwd"},
		{"windows path", `C:\docs\report.docx`, prefix + "report.docx"},
		{"empty", "", prefix + "original"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentKey(userId, docId, tt.filename))
		})
	}
}
