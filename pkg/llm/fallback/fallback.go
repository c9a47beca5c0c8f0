package fallback

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCandidates is returned when Try is called with an empty chain.
var ErrNoCandidates = errors.New("fallback: no candidates")

// Try calls fn for each candidate in order until one succeeds.
// A failure moves on to the next candidate only when retryable reports true
// and a candidate remains; otherwise the error is returned as-is.
func Try[T any](ctx context.Context, candidates []string, fn func(ctx context.Context, candidate string) (T, error), retryable func(error) bool) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, ErrNoCandidates
	}

	var lastErr error
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn(ctx, c)
		if err == nil {
			return out, nil
		}
		lastErr = fmt.Errorf("%s: %w", c, err)

		if i == len(candidates)-1 || !retryable(err) {
			return zero, lastErr
		}
	}
	return zero, lastErr
}
