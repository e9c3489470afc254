package app

import (
	"context"
	"fmt"
	"strings"

	"legischat/internal/ai"
)

const summarizerSystemPrompt = "Summarize this conversation in 3 to 5 words, " +
	"in the language of the conversation. Return only the phrase, nothing else."

// summarize recomputes the conversation title from its recent messages.
// Over-generation is clipped to the first line's first few words; any
// failure falls back to the opening words of the current question.
func (s *ChatService) summarize(ctx context.Context, conversationID uint, question string) string {
	fallback := firstWords(question, summaryWords)

	recent, err := s.messageRepo.ListRecent(conversationID, summaryWindow)
	if err != nil || len(recent) == 0 {
		if err != nil {
			s.logger.Warn("load messages for summary failed", "conversation_id", conversationID, "err", err)
		}
		return fallback
	}

	var b strings.Builder
	for _, m := range recent {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: summarizerSystemPrompt},
		{Role: "user", Content: b.String()},
	}

	raw, err := retryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Complete(ctx, messages, ai.CompleteOptions{MaxTokens: 16, Temperature: 0})
	})
	if err != nil {
		s.logger.Warn("summary generation failed", "conversation_id", conversationID, "err", err)
		return fallback
	}

	firstLine := raw
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		firstLine = raw[:idx]
	}
	summary := firstWords(firstLine, summaryWords)
	if summary == "" {
		return fallback
	}
	return summary
}

func firstWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}
