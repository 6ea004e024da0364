package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"loops-assistant/internal/domain"
	"loops-assistant/internal/usecase"
)

const (
	ChatPath    = "/api/chat"
	ContactPath = "/api/contact"

	correlationHeader    = "X-Correlation-Id"
	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"

	replyMessageRequired  = "Message required"
	replyMessageTooLong   = "Message too long"
	replyInvalidBody      = "Invalid request body"
	replyConfigError      = "Server configuration error: API key missing."
	replyServerError      = "Server error"
	replyMethodNotAllowed = "Method Not Allowed"
)

type ChatUseCase interface {
	Chat(ctx context.Context, in usecase.ChatInput) (usecase.ChatOutput, error)
}

type ContactUseCase interface {
	Capture(ctx context.Context, rec domain.ContactRecord) error
}

type contactResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the chat and contact endpoints from API Gateway proxy events.
type Handler struct {
	chat    ChatUseCase
	contact ContactUseCase
	logger  *slog.Logger
}

func NewHandler(chat ChatUseCase, contact ContactUseCase, logger *slog.Logger) (*Handler, error) {
	if chat == nil {
		return nil, errors.New("handler: chat use case must not be nil")
	}
	if contact == nil {
		return nil, errors.New("handler: contact use case must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{chat: chat, contact: contact, logger: logger}, nil
}

// Handle never returns an error; every failure is shaped into a response.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(event.Headers)
	logger := h.logger.With("correlation_id", corrID, "method", event.HTTPMethod, "path", event.Path)

	var resp events.APIGatewayProxyResponse
	switch routePath(event.Path) {
	case ChatPath:
		resp = h.handleChat(ctx, logger, event)
	case ContactPath:
		resp = h.handleContact(ctx, logger, event)
	default:
		resp = jsonResponse(http.StatusNotFound, errorResponse{Error: "not found"})
	}
	resp.Headers[correlationHeader] = corrID
	return resp, nil
}

func (h *Handler) handleChat(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	if event.HTTPMethod != http.MethodPost {
		return methodNotAllowed(domain.ChatResponse{Reply: replyMethodNotAllowed, Error: codeMethodNotAllowed})
	}

	var req domain.ChatRequest
	if err := decodeBody(event, &req); err != nil {
		logger.InfoContext(ctx, "invalid chat body", "err", err)
		return jsonResponse(http.StatusBadRequest, domain.ChatResponse{Reply: replyInvalidBody, Error: string(usecase.ErrorInvalidInput)})
	}

	out, err := h.chat.Chat(ctx, usecase.ChatInput{
		Message:           req.Message,
		Lang:              req.Lang,
		FallbackTriggered: req.FallbackTriggered,
	})
	if err != nil {
		status, reply, code := chatError(err)
		logFailure(ctx, logger, status, "chat request failed", err)
		return jsonResponse(status, domain.ChatResponse{Reply: reply, Error: code})
	}

	return jsonResponse(http.StatusOK, domain.ChatResponse{
		Reply:    out.Reply,
		Fallback: out.Fallback,
		Stop:     out.Stop,
	})
}

func (h *Handler) handleContact(ctx context.Context, logger *slog.Logger, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	if event.HTTPMethod != http.MethodPost {
		return methodNotAllowed(errorResponse{Error: "method not allowed"})
	}

	var rec domain.ContactRecord
	if err := decodeBody(event, &rec); err != nil {
		logger.InfoContext(ctx, "invalid contact body", "err", err)
		return jsonResponse(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := h.contact.Capture(ctx, rec); err != nil {
		var ucErr *usecase.Error
		if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
			logFailure(ctx, logger, http.StatusBadRequest, "contact capture rejected", err)
			return jsonResponse(http.StatusBadRequest, errorResponse{Error: "name and email required"})
		}
		logFailure(ctx, logger, http.StatusInternalServerError, "contact capture failed", err)
		return jsonResponse(http.StatusInternalServerError, errorResponse{Error: "server error"})
	}
	return jsonResponse(http.StatusOK, contactResponse{OK: true})
}

// chatError maps use-case failures to a status and a caller-safe reply.
func chatError(err error) (status int, reply string, code string) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, replyServerError, string(usecase.ErrorInternal)
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		if ucErr.Reason == "message_too_long" {
			return http.StatusBadRequest, replyMessageTooLong, string(ucErr.Code)
		}
		return http.StatusBadRequest, replyMessageRequired, string(ucErr.Code)
	case usecase.ErrorConfiguration:
		return http.StatusInternalServerError, replyConfigError, string(ucErr.Code)
	case usecase.ErrorUpstream:
		return http.StatusInternalServerError, replyServerError, string(ucErr.Code)
	default:
		return http.StatusInternalServerError, replyServerError, string(usecase.ErrorInternal)
	}
}

func logFailure(ctx context.Context, logger *slog.Logger, status int, msg string, err error) {
	attrs := []any{"status", status, "err", err}
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		attrs = append(attrs, "code", ucErr.Code, "reason", ucErr.Reason)
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, msg, attrs...)
		return
	}
	logger.InfoContext(ctx, msg, attrs...)
}

// decodeBody treats a blank body as an empty JSON object.
func decodeBody(event events.APIGatewayProxyRequest, v any) error {
	body := event.Body
	if event.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return err
		}
		body = string(raw)
	}
	if strings.TrimSpace(body) == "" {
		return nil
	}
	return json.Unmarshal([]byte(body), v)
}

func methodNotAllowed(body any) events.APIGatewayProxyResponse {
	resp := jsonResponse(http.StatusMethodNotAllowed, body)
	resp.Headers["Allow"] = http.MethodPost
	return resp
}

func jsonResponse(status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"server error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}
}

func routePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return newCorrelationID()
}

var newCorrelationID = func() string {
	return uuid.NewString()
}
