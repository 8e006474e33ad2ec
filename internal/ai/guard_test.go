package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-chat-platform/internal/apperrors"
)

func TestGetRateLimits(t *testing.T) {
	assert.Equal(t, 10, GetRateLimits("free").RPM)
	assert.Equal(t, 1000, GetRateLimits("tier1").RPM)
	assert.Equal(t, 2000, GetRateLimits("tier2").RPM)
	assert.Equal(t, 10, GetRateLimits("unknown").RPM)
}

func TestGuardOpensAfterFailures(t *testing.T) {
	g := NewGuard("test", GetRateLimits("local"), nil)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		_, err := g.Do(context.Background(), "test.call", func() (interface{}, error) {
			return nil, boom
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	}

	called := false
	_, err := g.Do(context.Background(), "test.call", func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
}

func TestGuardCancelledContext(t *testing.T) {
	g := NewGuard("test", GetRateLimits("free"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Do(ctx, "test.call", func() (interface{}, error) {
		return "ok", nil
	})
	assert.ErrorIs(t, err, apperrors.ErrProviderUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
