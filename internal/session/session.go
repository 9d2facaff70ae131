// Package session owns the credentials of an authenticated site and refreshes them when a
// call reports that they expired.
package session

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

const (
	report_state_login   = "state.login"
	report_state_refresh = "state.refresh"
)

// Credentials are the cookies and headers every authenticated call must carry.
type Credentials struct {
	Cookies []*http.Cookie
	Headers http.Header
}

func (c Credentials) Cookie(name string) string {
	for _, cookie := range c.Cookies {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// CookieHeader renders the cookies as the value of a Cookie request header.
func (c Credentials) CookieHeader() string {
	parts := make([]string, 0, len(c.Cookies))
	for _, cookie := range c.Cookies {
		parts = append(parts, cookie.Name+"="+cookie.Value)
	}
	return strings.Join(parts, "; ")
}

// Apply copies the credentials onto an outgoing request.
func (c Credentials) Apply(header http.Header) {
	for k, values := range c.Headers {
		header.Del(k)
		for _, v := range values {
			header.Add(k, v)
		}
	}
	if len(c.Cookies) > 0 && header.Get("cookie") == "" {
		header.Set("cookie", c.CookieHeader())
	}
}

type LoginFunc func(ctx context.Context) (Credentials, error)

const DefaultMaxRefreshes = 1

// State is Unauthenticated until the first call that needs credentials, Authenticated
// afterwards, and back to Unauthenticated whenever a call reports an expired session.
type State struct {
	mutex        sync.Mutex
	login        LoginFunc
	creds        *Credentials
	generation   int
	maxRefreshes int
	tel          telemetry.API

	logins int
}

func New(login LoginFunc, maxRefreshes int, tel telemetry.API) *State {
	assert.NotNil(login)
	assert.NotNil(tel)
	if maxRefreshes <= 0 {
		maxRefreshes = DefaultMaxRefreshes
	}
	return &State{
		login:        login,
		maxRefreshes: maxRefreshes,
		tel:          telemetry.NewScopedAPI("session", tel),
	}
}

// Credentials returns the current credentials, logging in first if there are none.
func (s *State) Credentials(ctx context.Context) (Credentials, error) {
	creds, _, err := s.current(ctx)
	return creds, err
}

func (s *State) current(ctx context.Context) (Credentials, int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.creds != nil {
		return *s.creds, s.generation, nil
	}

	creds, err := s.login(ctx)
	s.logins++
	if err != nil {
		s.tel.ReportBroken(report_state_login, err)
		return Credentials{}, s.generation, fmt.Errorf("login: %w", err)
	}
	s.creds = &creds
	s.generation++
	s.tel.ReportDebug("logged in", s.generation)
	return creds, s.generation, nil
}

// invalidate drops the credentials of the given generation, credentials that were already
// refreshed by someone else are kept.
func (s *State) invalidate(generation int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.generation == generation {
		s.creds = nil
	}
}

// Update replaces the credentials, for sites whose pages mint new cookies as they are visited.
func (s *State) Update(creds Credentials) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.creds = &creds
	s.generation++
}

func (s *State) Authenticated() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.creds != nil
}

// Logins returns the number of login attempts so far.
func (s *State) Logins() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.logins
}

// Do runs call with the current credentials. When call fails with an auth error the session
// is refreshed and call is tried again, at most maxRefreshes times.
func Do[T any](ctx context.Context, s *State, call func(ctx context.Context, creds Credentials) (T, error)) (T, error) {
	var zero T
	for refreshes := 0; ; refreshes++ {
		creds, generation, err := s.current(ctx)
		if err != nil {
			return zero, err
		}

		value, err := call(ctx, creds)
		if err == nil || crawl.KindOf(err) != crawl.KindAuth {
			return value, err
		}
		if refreshes >= s.maxRefreshes {
			s.tel.ReportBroken(report_state_refresh, err, refreshes)
			return value, err
		}

		s.tel.ReportWarning(report_state_refresh, err)
		s.invalidate(generation)
	}
}
