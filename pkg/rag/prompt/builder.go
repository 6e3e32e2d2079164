package prompt

import (
	"fmt"
	"strings"

	"ragchat-be/internal/entity"
	"ragchat-be/pkg/llm"
)

// ContextualBuilder assembles the system instructions and the provider request.
type ContextualBuilder struct {
	sources []*entity.SearchResult
	history []*entity.Message
	query   string
}

func NewContextualBuilder(sources []*entity.SearchResult, history []*entity.Message, query string) *ContextualBuilder {
	return &ContextualBuilder{
		sources: sources,
		history: history,
		query:   query,
	}
}

// SystemPrompt numbers the sources so the model can cite them as [1], [2].
func (b *ContextualBuilder) SystemPrompt() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeReferenceMaterial(&prompt)
	b.writeGuidelines(&prompt)

	return strings.TrimSpace(prompt.String())
}

func (b *ContextualBuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a helpful assistant answering questions about the user's own documents and general topics.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *ContextualBuilder) writeReferenceMaterial(prompt *strings.Builder) {
	if len(b.sources) == 0 {
		return
	}

	prompt.WriteString("<reference_material>\n")
	for i, s := range b.sources {
		prompt.WriteString(fmt.Sprintf("[%d] %s\n%s\n\n", i+1, s.Title, s.Content))
	}
	prompt.WriteString("</reference_material>\n\n")
}

func (b *ContextualBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	if len(b.sources) > 0 {
		prompt.WriteString("- Reference the material above when it is relevant and cite sources using [1], [2], etc.\n")
		prompt.WriteString("- If the material doesn't contain what's being asked, say so honestly\n")
	} else {
		prompt.WriteString("- No reference material matched this question. Answer from general knowledge and say so when unsure\n")
	}
	prompt.WriteString("- Be professional, helpful and concise\n")
	prompt.WriteString("</guidelines>")
}

// Messages returns the system prompt, the transcript, then the new user message.
func (b *ContextualBuilder) Messages() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: b.SystemPrompt()})

	for _, m := range b.history {
		role, ok := providerRole(m.Role)
		if !ok {
			continue
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: b.query})
	return messages
}

// providerRole drops stored system messages; the builder owns the system slot.
func providerRole(role entity.MessageRole) (string, bool) {
	switch role {
	case entity.RoleUser:
		return llm.RoleUser, true
	case entity.RoleAssistant:
		return llm.RoleAssistant, true
	case entity.RoleSystem:
		return "", false
	}
	return "", false
}
