package ai

import (
	"context"
	"errors"
	"net/http"

	"github.com/ollama/ollama/api"
	"github.com/sony/gobreaker"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rag-chat-platform/internal/apperrors"
)

// Classify maps an SDK error onto the provider error taxonomy.
// Errors that are already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) != "" {
		return err
	}
	return apperrors.New(kindOf(err), op, err)
}

func kindOf(err error) apperrors.Kind {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.KindProviderUnavailable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.KindProviderUnavailable
	}

	// REST transport (generative-ai-go)
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return kindOfHTTPStatus(gerr.Code)
	}

	// Ollama server
	var serr api.StatusError
	if errors.As(err, &serr) {
		return kindOfHTTPStatus(serr.StatusCode)
	}

	// gRPC transport
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return apperrors.KindRateLimited
		case codes.InvalidArgument:
			return apperrors.KindInvalidInput
		}
	}
	return apperrors.KindProviderUnavailable
}

func kindOfHTTPStatus(code int) apperrors.Kind {
	switch code {
	case http.StatusTooManyRequests:
		return apperrors.KindRateLimited
	case http.StatusBadRequest:
		return apperrors.KindInvalidInput
	default:
		return apperrors.KindProviderUnavailable
	}
}
