package chrono

import (
	"context"
	"errors"
	"time"
)

var ErrPollTimeout = errors.New("poll: condition not met before timeout")

// Poll calls cond every interval until it returns true, the timeout elapses or ctx is done.
// cond is called once immediately.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func(ctx context.Context) (bool, error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := cond(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrPollTimeout
			}
			return ctx.Err()
		}
	}
}
