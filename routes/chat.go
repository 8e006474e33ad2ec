package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"rag-chat-platform/internal/ai"
	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/internal/relay"
	"rag-chat-platform/internal/telemetry"
	"rag-chat-platform/middleware"
	"rag-chat-platform/models"
	"rag-chat-platform/utils"

	"github.com/gin-gonic/gin"
)

// Answerer turns a conversation into a stream of answer text
type Answerer interface {
	Handle(ctx context.Context, history []models.ChatMessage) (ai.Stream, error)
}

type chatHandler struct {
	answerer Answerer
	metrics  *telemetry.Metrics
	log      *slog.Logger
}

func SetupChatRoutes(router *gin.Engine, answerer Answerer, metrics *telemetry.Metrics, log *slog.Logger) {
	h := &chatHandler{answerer: answerer, metrics: metrics, log: log}

	api := router.Group("/api")
	api.POST("/chat", h.chat)
}

// chat streams the answer as plain text. Errors before the first byte get a
// JSON error body; after that the response can only be cut short.
func (h *chatHandler) chat(c *gin.Context) {
	requestID := middleware.GetRequestID(c)

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondWithTooLarge(c, tooLarge.Limit)
			return
		}
		h.log.Warn("Malformed chat request", "request_id", requestID, "error", err)
		utils.RespondWithAppError(c, fmt.Errorf("%w: %w", apperrors.ErrBadRequest, err))
		return
	}
	req.Normalize()

	stream, err := h.answerer.Handle(c.Request.Context(), req.Messages)
	if err != nil {
		if errors.Is(err, apperrors.ErrBadRequest) {
			h.log.Warn("Rejected chat request", "request_id", requestID, "error", err)
		} else {
			h.log.Error("Chat request failed", "request_id", requestID, "error", err)
			_ = c.Error(err)
		}
		utils.RespondWithAppError(c, err)
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	n, err := relay.Pump(ctx, stream, func(delta string) error {
		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	h.metrics.RecordStreamDeltas(ctx, n, err == nil)

	switch {
	case err == nil:
		h.log.Debug("Chat stream completed", "request_id", requestID, "deltas", n)
	case errors.Is(err, context.Canceled):
		h.log.Info("Client disconnected during stream", "request_id", requestID, "deltas", n)
	default:
		h.log.Error("Chat stream terminated", "request_id", requestID, "deltas", n, "error", err)
		_ = c.Error(err)
	}
}
