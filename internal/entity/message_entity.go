package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

func ParseMessageRole(s string) (MessageRole, error) {
	switch MessageRole(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAssistant:
		return RoleAssistant, nil
	case RoleSystem:
		return RoleSystem, nil
	}
	return "", fmt.Errorf("unknown message role %q", s)
}

func (r MessageRole) String() string {
	return string(r)
}

type Citation struct {
	DocumentId uuid.UUID `json:"document_id"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	SourceUrl  *string   `json:"source_url,omitempty"`
	ChunkIndex int       `json:"chunk_index"`
	Similarity float64   `json:"similarity"`
}

type Attachment struct {
	Name     string `json:"name"`
	FileType string `json:"file_type"`
	Size     int64  `json:"size"`
	Url      string `json:"url,omitempty"`
}

type MessageMetadata struct {
	Citations  []Citation  `json:"citations,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Streaming  bool        `json:"streaming,omitempty"`
}

type Message struct {
	Id         uuid.UUID
	ChatId     uuid.UUID
	ParentId   *uuid.UUID
	Role       MessageRole
	Content    string
	Metadata   *MessageMetadata
	TokenCount *int
	Depth      int
	Path       string
	IsDeleted  bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (m *Message) IsRoot() bool {
	return m.ParentId == nil
}

// MessageNode is one message with its visible replies, in creation order.
type MessageNode struct {
	Message  *Message
	Children []*MessageNode
}
