package app

import (
	"context"
	"strings"

	"legischat/internal/ai"
)

const classifierSystemPrompt = "You are a router for a Romanian road-legislation assistant. " +
	"Reply with exactly one word: LEGISLATION if the question asks about traffic law, " +
	"road rules, fines, licenses or related regulation, otherwise CHAT. No other output."

// classifyQuestion routes a question to the retrieval or the generic path.
// Anything that does not clearly start with the LEGISLATION prefix, including
// a failed call after retry, falls back to CHAT.
func (s *ChatService) classifyQuestion(ctx context.Context, question string) turnLabel {
	messages := []ai.ChatMessage{
		{Role: "system", Content: classifierSystemPrompt},
		{Role: "user", Content: question},
	}

	verdict, err := retryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Complete(ctx, messages, ai.CompleteOptions{MaxTokens: 1, Temperature: 0})
	})
	if err != nil {
		s.logger.Warn("turn classification failed, defaulting to chat", "err", err)
		return labelChat
	}

	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(verdict)), "LEG") {
		return labelLegislation
	}
	return labelChat
}
