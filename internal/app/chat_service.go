package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"legischat/internal/ai"
	"legischat/internal/model"
	"legischat/internal/vectorindex"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageEmpty         = errors.New("message content is empty")
)

// Fixed user-facing replies. The corpus is Romanian road legislation, so the
// canned texts are too.
const (
	ReplyNoPassages  = "Nu am găsit pasaje relevante."
	ReplyUnavailable = "Serviciul este momentan indisponibil. Încercați din nou."
)

const (
	summaryWindow = 20
	summaryWords  = 5
)

// ConversationStore and MessageStore are the persistence operations the turn
// machine needs; the gorm repositories satisfy them.
type ConversationStore interface {
	Create(conversation *model.Conversation) error
	GetByID(id uint) (*model.Conversation, error)
	ListByUser(userID uint) ([]model.Conversation, error)
	UpdateSummary(id uint, summary string) error
}

type MessageStore interface {
	Create(message *model.Message) error
	ListByConversation(conversationID uint) ([]model.Message, error)
	ListRecent(conversationID uint, limit int) ([]model.Message, error)
}

// Generator is one bound chat model.
type Generator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage, opts ai.CompleteOptions) (string, error)
}

// Embedder encodes one query text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever is the similarity-query side of the vector index.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int, filter vectorindex.Filter) ([]vectorindex.Match, error)
}

// HistoryCache keeps rendered conversation history out of MySQL on reads.
// Writes during a turn invalidate it.
type HistoryCache interface {
	GetHistory(ctx context.Context, conversationID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, conversationID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, conversationID uint) error
}

// turnState drives one conversation turn through its fixed step order. Each
// step either advances or aborts the turn; external-call failures inside
// resolve downgrade to canned replies instead of aborting, so a persisted
// user message always gets some persisted resolution.
type turnState int

const (
	stateStart turnState = iota
	statePersistUser
	stateLoadHistory
	stateRewrite
	stateClassify
	stateResolve
	statePersistAssistant
	stateSummarize
	stateDone
)

type turnLabel int

const (
	labelChat turnLabel = iota
	labelLegislation
)

// turn is the working set threaded through the state machine.
type turn struct {
	userID         uint
	conversationID uint
	raw            string

	conversation *model.Conversation
	history      []model.Message
	question     string
	label        turnLabel
	reply        string
}

type TurnInput struct {
	UserID         uint
	ConversationID uint
	Message        string
}

type TurnResult struct {
	ConversationID uint   `json:"conversation_id"`
	Reply          string `json:"reply"`
}

type ChatService struct {
	conversationRepo ConversationStore
	messageRepo      MessageStore
	generator        Generator
	answerer         Generator
	embedder         Embedder
	retriever        Retriever
	historyCache     HistoryCache
	topK             int
	logger           *slog.Logger

	// Turns for the same conversation must not interleave their
	// read-history and write-message steps.
	mu        sync.Mutex
	convLocks map[uint]*sync.Mutex
}

func NewChatService(
	conversationRepo ConversationStore,
	messageRepo MessageStore,
	generator Generator,
	answerer Generator,
	embedder Embedder,
	retriever Retriever,
	historyCache HistoryCache,
	topK int,
	logger *slog.Logger,
) *ChatService {
	if topK <= 0 {
		topK = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatService{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		generator:        generator,
		answerer:         answerer,
		embedder:         embedder,
		retriever:        retriever,
		historyCache:     historyCache,
		topK:             topK,
		logger:           logger,
		convLocks:        make(map[uint]*sync.Mutex),
	}
}

// HandleTurn runs one full turn: resolve the conversation, persist the user
// message, answer it on the retrieval or generic path, persist the reply,
// refresh the summary.
func (s *ChatService) HandleTurn(ctx context.Context, input TurnInput) (*TurnResult, error) {
	content := strings.TrimSpace(input.Message)
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	if content == "" {
		return nil, ErrMessageEmpty
	}

	t := &turn{userID: input.UserID, conversationID: input.ConversationID, raw: content}

	// The first transition resolves the conversation id; everything after it
	// serializes on that id.
	state, err := s.step(ctx, t, stateStart)
	if err != nil {
		return nil, err
	}
	lock := s.lockForConversation(t.conversation.ID)
	lock.Lock()
	defer lock.Unlock()

	for state != stateDone {
		state, err = s.step(ctx, t, state)
		if err != nil {
			return nil, err
		}
	}
	return &TurnResult{ConversationID: t.conversation.ID, Reply: t.reply}, nil
}

// step is the single transition function of the turn machine.
func (s *ChatService) step(ctx context.Context, t *turn, state turnState) (turnState, error) {
	switch state {
	case stateStart:
		if err := s.startOrResume(t); err != nil {
			return stateDone, err
		}
		return statePersistUser, nil

	case statePersistUser:
		if err := s.persistMessage(ctx, t.conversation.ID, "user", t.raw); err != nil {
			return stateDone, err
		}
		return stateLoadHistory, nil

	case stateLoadHistory:
		history, err := s.messageRepo.ListByConversation(t.conversation.ID)
		if err != nil {
			return stateDone, err
		}
		t.history = history
		return stateRewrite, nil

	case stateRewrite:
		t.question = s.rewriteQuestion(ctx, t.history, t.raw)
		return stateClassify, nil

	case stateClassify:
		t.label = s.classifyQuestion(ctx, t.question)
		return stateResolve, nil

	case stateResolve:
		if t.label == labelLegislation {
			t.reply = s.answerFromLegislation(ctx, t.question)
		} else {
			t.reply = s.answerFromHistory(ctx, t.history)
		}
		return statePersistAssistant, nil

	case statePersistAssistant:
		if err := s.persistMessage(ctx, t.conversation.ID, "assistant", t.reply); err != nil {
			return stateDone, err
		}
		return stateSummarize, nil

	case stateSummarize:
		summary := s.summarize(ctx, t.conversation.ID, t.raw)
		if err := s.conversationRepo.UpdateSummary(t.conversation.ID, summary); err != nil {
			s.logger.Warn("update conversation summary failed", "conversation_id", t.conversation.ID, "err", err)
		}
		return stateDone, nil

	default:
		return stateDone, fmt.Errorf("unknown turn state %d", state)
	}
}

func (s *ChatService) startOrResume(t *turn) error {
	if t.conversationID == 0 {
		conversation := &model.Conversation{UserID: t.userID}
		if err := s.conversationRepo.Create(conversation); err != nil {
			return err
		}
		t.conversation = conversation
		return nil
	}

	conversation, err := s.conversationRepo.GetByID(t.conversationID)
	if err != nil {
		return err
	}
	if conversation == nil || conversation.UserID != t.userID {
		return ErrConversationNotFound
	}
	t.conversation = conversation
	return nil
}

func (s *ChatService) persistMessage(ctx context.Context, conversationID uint, role, content string) error {
	message := &model.Message{
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return err
	}
	if s.historyCache != nil {
		if err := s.historyCache.DeleteHistory(ctx, conversationID); err != nil {
			s.logger.Warn("invalidate history cache failed", "conversation_id", conversationID, "err", err)
		}
	}
	return nil
}

// answerFromLegislation runs the retrieval path: embed, query, answer from
// passages. Every external failure, after one retry, falls back to a canned
// reply rather than aborting the turn.
func (s *ChatService) answerFromLegislation(ctx context.Context, question string) string {
	vector, err := retryOnce(ctx, func(ctx context.Context) ([]float32, error) {
		return s.embedder.Embed(ctx, question)
	})
	if err != nil {
		s.logger.Error("embed question failed", "err", err)
		return ReplyUnavailable
	}

	matches, err := retryOnce(ctx, func(ctx context.Context) ([]vectorindex.Match, error) {
		return s.retriever.Query(ctx, vector, s.topK, nil)
	})
	if err != nil {
		s.logger.Error("retrieval query failed", "err", err)
		return ReplyUnavailable
	}
	if len(matches) == 0 {
		return ReplyNoPassages
	}

	messages := groundedPrompt(question, matches)
	reply, err := retryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.answerer.Complete(ctx, messages, ai.CompleteOptions{Temperature: 0.2})
	})
	if err != nil {
		s.logger.Error("grounded answer failed", "err", err)
		return ReplyUnavailable
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ReplyNoPassages
	}
	return reply
}

func (s *ChatService) answerFromHistory(ctx context.Context, history []model.Message) string {
	messages := make([]ai.ChatMessage, 0, len(history)+1)
	messages = append(messages, ai.ChatMessage{Role: "system", Content: genericSystemPrompt})
	for _, m := range history {
		messages = append(messages, ai.ChatMessage{Role: m.Role, Content: m.Content})
	}

	reply, err := retryOnce(ctx, func(ctx context.Context) (string, error) {
		return s.generator.Complete(ctx, messages, ai.CompleteOptions{Temperature: 0.7})
	})
	if err != nil {
		s.logger.Error("chat completion failed", "err", err)
		return ReplyUnavailable
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ReplyUnavailable
	}
	return reply
}

// ListConversations returns the caller's conversations, newest first.
func (s *ChatService) ListConversations(userID uint) ([]model.Conversation, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.conversationRepo.ListByUser(userID)
}

// GetConversation returns one owned conversation with its full message log.
func (s *ChatService) GetConversation(ctx context.Context, userID, conversationID uint) (*model.Conversation, []model.Message, error) {
	if userID == 0 || conversationID == 0 {
		return nil, nil, ErrInvalidInput
	}
	conversation, err := s.conversationRepo.GetByID(conversationID)
	if err != nil {
		return nil, nil, err
	}
	if conversation == nil || conversation.UserID != userID {
		return nil, nil, ErrConversationNotFound
	}

	if s.historyCache != nil {
		if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, conversationID); cacheErr == nil && hit {
			return conversation, cached, nil
		}
	}

	messages, err := s.messageRepo.ListByConversation(conversationID)
	if err != nil {
		return nil, nil, err
	}
	if s.historyCache != nil {
		if err := s.historyCache.SetHistory(ctx, conversationID, messages); err != nil {
			s.logger.Warn("set history cache failed", "conversation_id", conversationID, "err", err)
		}
	}
	return conversation, messages, nil
}

func (s *ChatService) lockForConversation(id uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.convLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.convLocks[id] = lock
	}
	return lock
}

// retryOnce re-issues a failed external call a single time. Backoff policy
// belongs to the caller's HTTP client, not here.
func retryOnce[T any](ctx context.Context, call func(context.Context) (T, error)) (T, error) {
	value, err := call(ctx)
	if err == nil || ctx.Err() != nil {
		return value, err
	}
	return call(ctx)
}
