package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
)

type stubProvider struct {
	calls    int
	failures int
	err      error
	vec      []float32
}

func (s *stubProvider) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubProvider) Model() string { return "stub" }

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	stub := &stubProvider{
		failures: 2,
		err:      fmt.Errorf("%w: status 503", ErrUnavailable),
		vec:      []float32{1, 2},
	}

	vec, err := WithRetry(stub, fastRetry(), zap.NewNop()).Embed(context.Background(), "query")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("unexpected vector: %v", vec)
	}
	if stub.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", stub.calls)
	}
}

func TestRetryGivesUpAfterMaxRetries(t *testing.T) {
	stub := &stubProvider{
		failures: 100,
		err:      fmt.Errorf("%w: status 429", ErrUnavailable),
	}

	_, err := WithRetry(stub, fastRetry(), zap.NewNop()).Embed(context.Background(), "query")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if stub.calls != 4 {
		t.Errorf("expected 4 attempts (1 initial + 3 retries), got %d", stub.calls)
	}
}

func TestRetryDoesNotRetryPermanentErrors(t *testing.T) {
	permanent := errors.New("invalid request")
	stub := &stubProvider{failures: 100, err: permanent}

	_, err := WithRetry(stub, fastRetry(), zap.NewNop()).Embed(context.Background(), "query")
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error, got %v", err)
	}
	if stub.calls != 1 {
		t.Errorf("permanent errors must not be retried, got %d attempts", stub.calls)
	}
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	stub := &stubProvider{
		failures: 100,
		err:      fmt.Errorf("%w: status 503", ErrUnavailable),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(stub, fastRetry(), zap.NewNop()).Embed(ctx, "query")
	if err == nil {
		t.Fatal("expected an error after cancellation")
	}
	if stub.calls > 1 {
		t.Errorf("cancelled context must stop retries, got %d attempts", stub.calls)
	}
}
