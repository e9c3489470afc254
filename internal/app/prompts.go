package app

import (
	"fmt"
	"strings"

	"legischat/internal/ai"
	"legischat/internal/vectorindex"
)

const genericSystemPrompt = "You are a helpful assistant for a Romanian road-legislation " +
	"service. Answer conversationally in the user's language."

const groundedSystemPrompt = "You answer questions about Romanian road legislation using " +
	"ONLY the passages provided. Cite the source URL of each passage you rely on. " +
	"If the passages do not contain the answer, say so."

// groundedPrompt renders retrieval matches into the answering prompt. Matches
// arrive ordered by similarity; score and source URL ride along so the model
// can weigh and cite them.
func groundedPrompt(question string, matches []vectorindex.Match) []ai.ChatMessage {
	var b strings.Builder
	b.WriteString("Passages:\n")
	for i, m := range matches {
		text, _ := m.Payload["text"].(string)
		url, _ := m.Payload["url"].(string)
		fmt.Fprintf(&b, "[%d] (score %.3f, source %s)\n%s\n\n", i+1, m.Score, url, text)
	}
	fmt.Fprintf(&b, "Question: %s", question)

	return []ai.ChatMessage{
		{Role: "system", Content: groundedSystemPrompt},
		{Role: "user", Content: b.String()},
	}
}
