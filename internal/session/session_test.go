package session

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func counterLogin(logins *int) LoginFunc {
	return func(context.Context) (Credentials, error) {
		*logins++
		return Credentials{
			Cookies: []*http.Cookie{{Name: "sessionid", Value: fmt.Sprint(*logins)}},
			Headers: http.Header{"X-Csrf-Token": []string{fmt.Sprintf("token-%d", *logins)}},
		}, nil
	}
}

func TestDoRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	logins := 0
	state := New(counterLogin(&logins), 1, &telemetry.Recorder{})
	require.False(t, state.Authenticated())

	// expired on the first session, fine on the second
	seen := []string{}
	value, err := Do(ctx, state, func(_ context.Context, creds Credentials) (string, error) {
		seen = append(seen, creds.Cookie("sessionid"))
		if creds.Cookie("sessionid") == "1" {
			return "", crawl.AuthExpired(errors.New("apierror"))
		}
		return "submissions", nil
	})
	require.Nil(t, err)
	require.Equal(t, "submissions", value)
	require.Equal(t, []string{"1", "2"}, seen)
	require.Equal(t, 2, logins)
	require.True(t, state.Authenticated())

	// the refreshed session is reused
	_, err = Do(ctx, state, func(_ context.Context, creds Credentials) (int, error) {
		require.Equal(t, "2", creds.Cookie("sessionid"))
		return 0, nil
	})
	require.Nil(t, err)
	require.Equal(t, 2, logins)
}

func TestDoIsBounded(t *testing.T) {
	ctx := context.Background()
	logins := 0
	tel := &telemetry.Recorder{}
	state := New(counterLogin(&logins), 1, tel)

	calls := 0
	_, err := Do(ctx, state, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, crawl.AuthExpired(errors.New("apierror"))
	})
	require.Equal(t, crawl.KindAuth, crawl.KindOf(err))
	require.Equal(t, 2, calls)
	require.Equal(t, 2, logins)
	require.True(t, tel.Has("broken", report_state_refresh))
}

func TestDoPassesOtherErrors(t *testing.T) {
	logins := 0
	state := New(counterLogin(&logins), 1, &telemetry.Recorder{})

	calls := 0
	_, err := Do(context.Background(), state, func(context.Context, Credentials) (int, error) {
		calls++
		return 0, errors.New("timeout")
	})
	require.ErrorContains(t, err, "timeout")
	require.Equal(t, 1, calls)
	require.Equal(t, 1, logins)
}

func TestLoginFailure(t *testing.T) {
	state := New(func(context.Context) (Credentials, error) {
		return Credentials{}, crawl.Fatal(errors.New("wrong password"))
	}, 1, &telemetry.Recorder{})

	_, err := Do(context.Background(), state, func(context.Context, Credentials) (int, error) {
		t.Fatal("call must not run without credentials")
		return 0, nil
	})
	require.Equal(t, crawl.KindFatal, crawl.KindOf(err))
	require.False(t, state.Authenticated())
	require.Equal(t, 1, state.Logins())
}

func TestCredentialsApply(t *testing.T) {
	creds := Credentials{
		Cookies: []*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}},
		Headers: http.Header{"X-Csrf-Token": []string{"tok"}},
	}
	header := http.Header{}
	creds.Apply(header)
	require.Equal(t, "a=1; b=2", header.Get("cookie"))
	require.Equal(t, "tok", header.Get("x-csrf-token"))
}

func TestUpdate(t *testing.T) {
	logins := 0
	state := New(counterLogin(&logins), 1, &telemetry.Recorder{})
	state.Update(Credentials{Cookies: []*http.Cookie{{Name: "sessionid", Value: "minted"}}})

	creds, err := state.Credentials(context.Background())
	require.Nil(t, err)
	require.Equal(t, "minted", creds.Cookie("sessionid"))
	require.Equal(t, 0, logins)
}
