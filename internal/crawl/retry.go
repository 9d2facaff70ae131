package crawl

import (
	"context"
	"fmt"
)

const DefaultAttempts = 3

// Outcome describes how a retried unit of work ended.
type Outcome struct {
	Attempts int
	// Err is the last error, nil on success.
	Err error
	// Abandoned is set when the work never succeeded.
	Abandoned bool
}

// Retry calls fn until it succeeds, at most attempts times and without backoff. Retryable
// errors are tried again, all other kinds stop immediately. A panic inside fn counts as a
// failed attempt and never escapes.
func Retry(ctx context.Context, attempts int, fn func(ctx context.Context) error) Outcome {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var out Outcome
	for out.Attempts < attempts {
		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}

		out.Attempts++
		out.Err = protect(ctx, fn)
		if out.Err == nil {
			return out
		}
		if KindOf(out.Err) != KindRetryable {
			break
		}
	}

	out.Abandoned = true
	return out
}

func protect(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		recovered := recover()
		if recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	return fn(ctx)
}
