package codechef

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/crawl"
	"cqscraper/internal/session"
	"errors"
	"fmt"
	"net/http"
)

const (
	headerCookie = "Cookie"
	headerCsrf   = "X-Csrf-Token"
)

// login signs in through the submissions tab of a sample problem, then takes the cookie and
// csrf token from the first request the logged in page sends with both.
func (s *Scraper) login(ctx context.Context) (session.Credentials, error) {
	if s.opts.Username == "" || s.opts.Password == "" {
		return session.Credentials{}, crawl.Fatal(errors.New("codechef needs a username and password"))
	}

	steps := []func() error{
		func() error { return s.browser.Navigate(ctx, s.baseUrl+"/problems/"+s.opts.SampleProblem) },
		func() error { return s.browser.Click(ctx, browser.ByRole("tab", "Submissions")) },
		func() error { return s.browser.Click(ctx, browser.ByRole("button", "Log In")) },
		func() error { return s.browser.Fill(ctx, browser.ByCSS(`input[type="text"]`), s.opts.Username) },
		func() error { return s.browser.Fill(ctx, browser.ByCSS(`input[type="password"]`), s.opts.Password) },
		func() error { return s.browser.Click(ctx, browser.ByRole("button", "LOGIN")) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return session.Credentials{}, err
		}
	}

	var headers http.Header
	err := chrono.Poll(ctx, s.opts.PollInterval, s.opts.HeaderTimeout, func(ctx context.Context) (bool, error) {
		for _, req := range s.browser.Requests(s.baseUrl) {
			cookie := req.Headers.Get(headerCookie)
			csrf := req.Headers.Get(headerCsrf)
			if cookie != "" && csrf != "" {
				headers = http.Header{headerCookie: {cookie}, headerCsrf: {csrf}}
			}
		}
		return headers != nil, nil
	})
	if errors.Is(err, chrono.ErrPollTimeout) {
		return session.Credentials{}, crawl.Fatal(fmt.Errorf("login: no request carried a csrf token within %s", s.opts.HeaderTimeout))
	}
	if err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Headers: headers}, nil
}
