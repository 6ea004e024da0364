package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"loops-assistant/internal/domain"
)

const (
	defaultMaxMessage = 1000
	contactSource     = "chatbot"

	// Low temperature keeps answers close to the knowledge base.
	replyTemperature     float32 = 0.2
	replyMaxOutputTokens int32   = 200
)

// Generator invokes a hosted model with a single instruction block and user
// message and returns the generated text.
type Generator interface {
	Generate(ctx context.Context, apiKey string, req domain.GenerationRequest) (string, error)
}

// Credentials supplies the model API key. An empty key with a nil error means
// no credential is configured.
type Credentials interface {
	APIKey(ctx context.Context) (string, error)
}

// ContactForwarder hands captured details to the contact-capture collaborator.
type ContactForwarder interface {
	Capture(ctx context.Context, rec domain.ContactRecord) error
}

type ChatService struct {
	llm       Generator
	creds     Credentials
	forwarder ContactForwarder
	model     string
	profile   BusinessProfile
	maxMsgLen int
	logger    *slog.Logger
}

type ChatInput struct {
	Message           string
	Lang              string
	FallbackTriggered bool
}

type ChatOutput struct {
	Reply    string
	Fallback bool
	Stop     bool
	Language domain.Language
}

type ChatOption func(*ChatService)

func WithProfile(p BusinessProfile) ChatOption {
	return func(s *ChatService) { s.profile = p }
}

func WithMaxMessageLength(n int) ChatOption {
	return func(s *ChatService) {
		if n > 0 {
			s.maxMsgLen = n
		}
	}
}

func WithChatLogger(l *slog.Logger) ChatOption {
	return func(s *ChatService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewChatService(llm Generator, creds Credentials, fwd ContactForwarder, model string, opts ...ChatOption) (*ChatService, error) {
	if llm == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	if creds == nil {
		return nil, errors.New("usecase: credentials must not be nil")
	}
	if fwd == nil {
		return nil, errors.New("usecase: contact forwarder must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	s := &ChatService{
		llm:       llm,
		creds:     creds,
		forwarder: fwd,
		model:     model,
		profile:   DefaultProfile,
		maxMsgLen: defaultMaxMessage,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *ChatService) Chat(ctx context.Context, in ChatInput) (ChatOutput, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return ChatOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}
	if len([]rune(message)) > s.maxMsgLen {
		return ChatOutput{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	lang := resolveLanguage(in.Lang, message)

	if details, ok := ExtractDetails(message, in.FallbackTriggered); ok {
		// The visitor is told their details arrived regardless of the forward result.
		if err := s.forwarder.Capture(ctx, details.record(contactSource)); err != nil {
			s.logger.ErrorContext(ctx, "contact forward failed", "err", err)
		}
		return ChatOutput{Reply: acknowledgment(lang), Stop: true, Language: lang}, nil
	}

	apiKey, err := s.creds.APIKey(ctx)
	if err != nil {
		return ChatOutput{}, newError(ErrorInternal, "credential_load_error", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return ChatOutput{}, newError(ErrorConfiguration, "api_key_missing", nil)
	}

	raw, err := s.llm.Generate(ctx, apiKey, domain.GenerationRequest{
		Model:           s.model,
		System:          BuildSystemPrompt(s.profile, lang),
		User:            message,
		Temperature:     replyTemperature,
		MaxOutputTokens: replyMaxOutputTokens,
		JSONReply:       true,
	})
	if err != nil {
		return ChatOutput{}, newError(ErrorUpstream, "model_error", err)
	}

	reply := strings.TrimSpace(raw)
	needsContact := false
	if looksStructured(raw) {
		decoded, decErr := parseAssistantReply(raw)
		if decErr != nil {
			return ChatOutput{}, newError(ErrorUpstream, "model_malformed_reply", decErr)
		}
		reply = strings.TrimSpace(decoded.Reply)
		needsContact = decoded.NeedsContact
	} else {
		s.logger.DebugContext(ctx, "model reply was not structured")
	}
	if reply == "" {
		return ChatOutput{}, newError(ErrorUpstream, "model_empty_reply", nil)
	}

	return ChatOutput{
		Reply:    reply,
		Fallback: needsContact || isFallbackReply(reply),
		Language: lang,
	}, nil
}
