package interviewbit

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/crawl"
	"cqscraper/internal/session"
	"errors"
)

var signIn = browser.ByRole("link", "Sign in")

// login goes through the email then password sign in flow. A captcha may interrupt it, the
// login timeout leaves room to solve it by hand in a headed browser.
func (s *Scraper) login(ctx context.Context) (session.Credentials, error) {
	if s.opts.Username == "" || s.opts.Password == "" {
		return session.Credentials{}, crawl.Fatal(errors.New("interviewbit needs a username and password"))
	}

	steps := []func() error{
		func() error { return s.browser.Navigate(ctx, s.baseUrl+"/") },
		func() error { return s.browser.Click(ctx, signIn) },
		func() error { return s.browser.Click(ctx, browser.ByCSS("div:nth-child(4) > .tappable")) },
		func() error { return s.browser.Fill(ctx, browser.ByPlaceholder("@xyz.com"), s.opts.Username) },
		func() error { return s.browser.Click(ctx, browser.ByText("Continue")) },
		func() error { return s.browser.Fill(ctx, browser.ByCSS("#password-field"), s.opts.Password) },
		func() error { return s.browser.Click(ctx, browser.ByText("Proceed")) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return session.Credentials{}, err
		}
	}

	err := chrono.Poll(ctx, s.opts.PollInterval, s.opts.LoginTimeout, func(ctx context.Context) (bool, error) {
		visible, err := s.browser.Exists(ctx, signIn)
		return !visible, err
	})
	if errors.Is(err, chrono.ErrPollTimeout) {
		return session.Credentials{}, crawl.Fatal(errors.New("login: still signed out"))
	}
	if err != nil {
		return session.Credentials{}, err
	}

	cookies, err := s.browser.Cookies(ctx)
	if err != nil {
		return session.Credentials{}, err
	}
	return session.Credentials{Cookies: cookies}, nil
}
