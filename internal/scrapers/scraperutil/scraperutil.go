// Package scraperutil holds the record building helpers shared by the site scrapers.
//
// Each scraper is split the same way: client.go turns inputs into requests and responses
// into gjson values, scraper.go combines the client calls into a crawl.Site and assembles
// the record. The login state is an implied input of every authenticated client method.
package scraperutil

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/session"
	"errors"
	"time"

	"github.com/tidwall/gjson"
)

// Value returns the Go value of r for a record field, nil when r does not exist.
func Value(r gjson.Result) any {
	if !r.Exists() {
		return nil
	}
	return r.Value()
}

// String returns r as a string, nil when r does not exist or is null.
func String(r gjson.Result) any {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	return r.String()
}

// Embedded parses a json document stored as a string inside another document, falling back
// to the raw string when it is not json.
func Embedded(r gjson.Result) any {
	if !r.Exists() || r.Type == gjson.Null {
		return nil
	}
	if r.Type == gjson.String && gjson.Valid(r.Str) {
		return gjson.Parse(r.Str).Value()
	}
	return r.Value()
}

// Strings maps every element of an array to the string at path.
func Strings(r gjson.Result, path string) []string {
	out := []string{}
	r.ForEach(func(_, value gjson.Result) bool {
		if path != "" {
			value = value.Get(path)
		}
		if value.Exists() {
			out = append(out, value.String())
		}
		return true
	})
	return out
}

// Optional turns a pointer produced by extraction into a record field.
func Optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

var ErrNoCookie = errors.New("session cookie did not appear")

// WaitForCookies polls the browser until a cookie with one of the given names is set and
// returns all cookies of the session.
func WaitForCookies(ctx context.Context, b browser.API, interval, timeout time.Duration, names ...string) (session.Credentials, error) {
	var creds session.Credentials
	err := chrono.Poll(ctx, interval, timeout, func(ctx context.Context) (bool, error) {
		cookies, err := b.Cookies(ctx)
		if err != nil {
			return false, err
		}
		for _, cookie := range cookies {
			for _, name := range names {
				if cookie.Name == name && cookie.Value != "" {
					creds.Cookies = cookies
					return true, nil
				}
			}
		}
		return false, nil
	})
	if errors.Is(err, chrono.ErrPollTimeout) {
		return session.Credentials{}, ErrNoCookie
	}
	return creds, err
}
