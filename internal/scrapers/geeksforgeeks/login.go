package geeksforgeeks

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/crawl"
	"cqscraper/internal/scrapers/scraperutil"
	"cqscraper/internal/session"
	"errors"
	"fmt"
)

// AuthCookie is set once the browser session is logged in.
const AuthCookie = "authtoken"

func (s *Scraper) login(ctx context.Context) (session.Credentials, error) {
	if s.opts.Username == "" || s.opts.Password == "" {
		return session.Credentials{}, crawl.Fatal(errors.New("geeksforgeeks needs a username and password"))
	}

	s.tel.ReportDebug("login", s.opts.AuthUrl)
	err := s.browser.Navigate(ctx, s.opts.AuthUrl)
	if err != nil {
		return session.Credentials{}, err
	}
	err = s.browser.Fill(ctx, browser.ByPlaceholder("Username or email"), s.opts.Username)
	if err != nil {
		return session.Credentials{}, err
	}
	err = s.browser.Fill(ctx, browser.ByRole("textbox", "Password"), s.opts.Password)
	if err != nil {
		return session.Credentials{}, err
	}
	err = s.browser.Click(ctx, browser.ByRole("button", "Sign In"))
	if err != nil {
		return session.Credentials{}, err
	}

	creds, err := scraperutil.WaitForCookies(ctx, s.browser, s.opts.PollInterval, s.opts.CookieTimeout, AuthCookie)
	if errors.Is(err, scraperutil.ErrNoCookie) {
		return session.Credentials{}, crawl.Fatal(fmt.Errorf("login: %w", err))
	}
	return creds, err
}

// visit opens the problem in the browser so the page mints the cookies the submission api
// expects, and opens the submission history the way a user would.
func (s *Scraper) visit(ctx context.Context, problemUrl string) error {
	_, err := s.session.Credentials(ctx)
	if err != nil {
		return err
	}

	err = s.browser.Navigate(ctx, problemUrl)
	if err != nil {
		return err
	}
	creds, err := scraperutil.WaitForCookies(ctx, s.browser, s.opts.PollInterval, s.opts.CookieTimeout, AuthCookie)
	if err != nil {
		return err
	}
	s.session.Update(creds)

	for _, loc := range []browser.Locator{browser.ByText("Submissions"), browser.ByText("All Submissions")} {
		err = s.browser.Click(ctx, loc)
		if err != nil {
			s.tel.ReportWarning(report_scraper_visit, err, loc.String())
			break
		}
	}
	return nil
}
