package crawl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	ctx := context.Background()
	transient := errors.New("connection reset")

	for k := 0; k < DefaultAttempts; k++ {
		t.Run(fmt.Sprintf("succeeds after %d failures", k), func(t *testing.T) {
			calls := 0
			outcome := Retry(ctx, DefaultAttempts, func(context.Context) error {
				calls++
				if calls <= k {
					return transient
				}
				return nil
			})
			require.Nil(t, outcome.Err)
			require.False(t, outcome.Abandoned)
			require.Equal(t, k+1, outcome.Attempts)
			require.Equal(t, k+1, calls)
		})
	}

	t.Run("always failing is abandoned after three attempts", func(t *testing.T) {
		calls := 0
		outcome := Retry(ctx, DefaultAttempts, func(context.Context) error {
			calls++
			return transient
		})
		require.ErrorIs(t, outcome.Err, transient)
		require.True(t, outcome.Abandoned)
		require.Equal(t, 3, outcome.Attempts)
		require.Equal(t, 3, calls)
	})

	t.Run("non-retryable kinds stop immediately", func(t *testing.T) {
		for _, err := range []error{Fatal(transient), AuthExpired(transient), Missing("slug")} {
			calls := 0
			outcome := Retry(ctx, DefaultAttempts, func(context.Context) error {
				calls++
				return err
			})
			require.True(t, outcome.Abandoned)
			require.Equal(t, 1, calls)
			require.Equal(t, KindOf(err), KindOf(outcome.Err))
		}
	})

	t.Run("panics are contained", func(t *testing.T) {
		outcome := Retry(ctx, 2, func(context.Context) error {
			panic("nil map")
		})
		require.True(t, outcome.Abandoned)
		require.Equal(t, 2, outcome.Attempts)
		require.ErrorContains(t, outcome.Err, "nil map")
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		calls := 0
		outcome := Retry(canceled, DefaultAttempts, func(context.Context) error {
			calls++
			cancel()
			return transient
		})
		require.True(t, outcome.Abandoned)
		require.Equal(t, 1, calls)
		require.ErrorIs(t, outcome.Err, context.Canceled)
	})
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	require.Equal(t, KindRetryable, KindOf(base))
	require.Equal(t, KindFatal, KindOf(fmt.Errorf("wrapped: %w", Fatal(base))))
	require.Equal(t, KindAuth, KindOf(AuthExpired(base)))
	require.Equal(t, KindMissing, KindOf(Missing("hints")))
	require.ErrorIs(t, Fatal(base), base)
	require.Nil(t, Retryable(nil))
}
