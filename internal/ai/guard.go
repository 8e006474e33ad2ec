package ai

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/internal/logger"
	"rag-chat-platform/internal/telemetry"
)

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

// GetRateLimits returns the published Gemini quota for a billing tier
func GetRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	case "local":
		return RateLimits{RPM: 6000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// Guard puts a rate limiter and a circuit breaker in front of one provider
type Guard struct {
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *rate.Limiter
}

func NewGuard(name string, limits RateLimits, metrics *telemetry.Metrics) *Guard {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			metrics.RecordCircuitBreakerState(name, to.String())
		},
	})

	burst := limits.RPM / 10
	if burst < 1 {
		burst = 1
	}

	return &Guard{
		breaker: breaker,
		// RPM limit with some buffer
		rateLimiter: rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), burst),
	}
}

// Do waits for a rate limit token and runs fn through the breaker.
// Errors are classified under op.
func (g *Guard) Do(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, Classify(op, ctx.Err())
		}
		return nil, apperrors.New(apperrors.KindRateLimited, op, err)
	}
	result, err := g.breaker.Execute(fn)
	if err != nil {
		return nil, Classify(op, err)
	}
	return result, nil
}
