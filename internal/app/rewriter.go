package app

import (
	"context"
	"fmt"
	"strings"

	"legischat/internal/ai"
	"legischat/internal/model"
)

const (
	rewriteHistoryWindow = 4
	rewriteMaxTokens     = 64
)

const rewriterSystemPrompt = "Rewrite the user's latest message as one standalone, " +
	"self-contained question, resolving pronouns and references from the conversation. " +
	"Return only the rewritten question."

// rewriteQuestion makes a follow-up message retrievable on its own. It only
// runs from the second user message onward; before that the raw message is
// already standalone. A failed rewrite, after retry, keeps the raw message.
func (s *ChatService) rewriteQuestion(ctx context.Context, history []model.Message, raw string) string {
	if countUserMessages(history) < 2 {
		return raw
	}

	prior := history[:len(history)-1]
	if len(prior) > rewriteHistoryWindow {
		prior = prior[len(prior)-rewriteHistoryWindow:]
	}

	var b strings.Builder
	for _, m := range prior {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "\nLatest message: %s", raw)

	messages := []ai.ChatMessage{
		{Role: "system", Content: rewriterSystemPrompt},
		{Role: "user", Content: b.String()},
	}

	rewritten, err := retryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Complete(ctx, messages, ai.CompleteOptions{MaxTokens: rewriteMaxTokens, Temperature: 0})
	})
	if err != nil {
		s.logger.Warn("query rewrite failed, keeping raw message", "err", err)
		return raw
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return raw
	}
	return rewritten
}

func countUserMessages(history []model.Message) int {
	count := 0
	for _, m := range history {
		if m.Role == "user" {
			count++
		}
	}
	return count
}
