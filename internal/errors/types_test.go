package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransient(errors.New("overloaded"), 503), true},
		{"explicit permanent", NewPermanent(errors.New("bad key"), 401), false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"timeout string", errors.New("request timeout exceeded"), true},
		{"plain error", errors.New("something else"), false},
		{"wrapped transient", fmt.Errorf("call failed: %w", NewTransient(errors.New("x"), 500)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassifyHTTPStatus(t *testing.T) {
	base := errors.New("upstream error")

	assert.True(t, IsTransient(ClassifyHTTPStatus(429, base)))
	assert.True(t, IsTransient(ClassifyHTTPStatus(500, base)))
	assert.True(t, IsPermanent(ClassifyHTTPStatus(400, base)))
	assert.True(t, IsPermanent(ClassifyHTTPStatus(404, base)))
	assert.Equal(t, base, ClassifyHTTPStatus(200, base))
}

func TestDegradedErrorCarriesFallback(t *testing.T) {
	err := NewDegraded(errors.New("llm timeout"), "Of course! Let me get that for you.")
	require.True(t, IsDegraded(err))
	assert.Equal(t, ErrorTypeDegraded, GetErrorType(err))

	var degraded *DegradedError
	require.True(t, errors.As(err, &degraded))
	assert.Equal(t, "Of course! Let me get that for you.", degraded.FallbackContent)
}

func TestRetryWithResultStopsOnPermanent(t *testing.T) {
	calls := 0
	_, err := RetryWithResult(context.Background(), DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		calls++
		return "", NewPermanent(errors.New("invalid request"), 400)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithResultRetriesTransient(t *testing.T) {
	config := RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	calls := 0
	result, err := RetryWithResult(context.Background(), config, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransient(errors.New("overloaded"), 503)
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, DefaultRetryConfig(), func(ctx context.Context) error {
		return NewTransient(errors.New("x"), 500)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
