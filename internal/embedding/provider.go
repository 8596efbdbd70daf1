// Package embedding abstracts the conversion of canonical text into dense
// vectors. The engine depends only on the Provider contract; concrete
// backends (Gemini, a local model, a test stub) plug in behind it.
package embedding

import (
	"context"
	"errors"
)

// ErrUnavailable marks provider-side failures (network, timeout, quota).
// The condition is retryable; callers that exhaust retries surface it as a
// transient server error, never as a client input error.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Provider converts canonical text into a fixed-length vector. Same text
// must map to the same vector, modulo provider-side nondeterminism the
// engine tolerates via near-stable scoring. Implementations must be safe
// for concurrent use.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}
