package chrono

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoll(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Poll(ctx, time.Millisecond, time.Second, func(context.Context) (bool, error) {
		calls++
		return calls == 3, nil
	})
	require.Nil(t, err)
	require.Equal(t, 3, calls)

	err = Poll(ctx, time.Millisecond, time.Millisecond*20, func(context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, ErrPollTimeout)

	broken := fmt.Errorf("broken")
	err = Poll(ctx, time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return false, broken
	})
	require.ErrorIs(t, err, broken)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = Poll(canceled, time.Millisecond, time.Second, func(context.Context) (bool, error) {
		return false, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}
