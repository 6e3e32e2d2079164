package prompt

import (
	"fmt"
	"strings"

	"ragchat-be/internal/entity"
)

const apologyMessage = "I'm sorry, the assistant is temporarily unavailable. Please try again in a moment."

// Fallback answers without the model: the gathered excerpts if any, else an apology.
func Fallback(citations []entity.Citation) string {
	if len(citations) == 0 {
		return apologyMessage
	}

	var sb strings.Builder
	sb.WriteString("The assistant is temporarily unavailable, but these passages from your documents look relevant:\n\n")
	for i, c := range citations {
		sb.WriteString(fmt.Sprintf("[%d] %s: %s\n", i+1, c.Title, c.Excerpt))
	}
	return strings.TrimRight(sb.String(), "\n")
}
