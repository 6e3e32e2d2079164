package prompt

import (
	"testing"

	"ragchat-be/internal/entity"
	"ragchat-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagesShape(t *testing.T) {
	history := []*entity.Message{
		{Role: entity.RoleSystem, Content: "seed"},
		{Role: entity.RoleUser, Content: "hello"},
		{Role: entity.RoleAssistant, Content: "hi there"},
	}
	sources := []*entity.SearchResult{{Title: "Handbook", Content: "Vacation is 20 days."}}

	msgs := NewContextualBuilder(sources, history, "how much vacation?").Messages()

	require.Len(t, msgs, 4)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "[1] Handbook")
	assert.Contains(t, msgs[0].Content, "Vacation is 20 days.")
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "hello"}, msgs[1])
	assert.Equal(t, llm.Message{Role: llm.RoleAssistant, Content: "hi there"}, msgs[2])
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "how much vacation?"}, msgs[3])
}

func TestSystemPromptWithoutSources(t *testing.T) {
	prompt := NewContextualBuilder(nil, nil, "hi").SystemPrompt()

	assert.NotContains(t, prompt, "<reference_material>")
	assert.Contains(t, prompt, "No reference material matched")
}

func TestFallback(t *testing.T) {
	assert.Equal(t, apologyMessage, Fallback(nil))

	text := Fallback([]entity.Citation{{Title: "Handbook", Excerpt: "Vacation is 20 days."}})
	assert.Contains(t, text, "[1] Handbook: Vacation is 20 days.")
}
