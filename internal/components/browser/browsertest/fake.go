// Package browsertest provides a scripted browser.API for tests.
package browsertest

import (
	"context"
	"cqscraper/internal/components/browser"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// Fake is a browser.API whose pages, cookies and network traffic are scripted. Every call is
// appended to Actions as "<verb> <argument>".
type Fake struct {
	mutex sync.Mutex

	// Pages maps a url to the html returned by Content after navigating to it.
	Pages map[string]string
	// Present lists the locators (by String()) that Exists reports as present.
	Present map[string]bool
	// CookieJar is returned by Cookies.
	CookieJar []*http.Cookie
	// OnNavigate and OnClick run after the action is recorded, they may mutate the fake.
	OnNavigate func(f *Fake, url string) error
	OnClick    func(f *Fake, loc browser.Locator) error

	Actions []string
	Filled  map[string]string

	current   string
	requests  []browser.Request
	responses []browser.Response
	patterns  []string
	closed    bool
}

func New() *Fake {
	return &Fake{
		Pages:   map[string]string{},
		Present: map[string]bool{},
		Filled:  map[string]string{},
	}
}

func (f *Fake) record(action string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.Actions = append(f.Actions, action)
}

// AddRequest simulates a request sent by the page.
func (f *Fake) AddRequest(url string, headers http.Header) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.requests = append(f.requests, browser.Request{Url: url, Headers: headers})
}

// AddResponse simulates a successful response received by the page, it is only kept if it
// matches a pattern given to Capture.
func (f *Fake) AddResponse(url string, body string) {
	f.AddResponseStatus(url, http.StatusOK, body)
}

func (f *Fake) AddResponseStatus(url string, status int, body string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for _, p := range f.patterns {
		if strings.Contains(url, p) {
			f.responses = append(f.responses, browser.Response{Url: url, Status: status, Body: []byte(body)})
			return
		}
	}
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.record("navigate " + url)
	f.mutex.Lock()
	f.current = url
	f.mutex.Unlock()
	if f.OnNavigate != nil {
		return f.OnNavigate(f, url)
	}
	return nil
}

func (f *Fake) Fill(ctx context.Context, loc browser.Locator, value string) error {
	f.record("fill " + loc.String())
	f.mutex.Lock()
	f.Filled[loc.String()] = value
	f.mutex.Unlock()
	return nil
}

func (f *Fake) Click(ctx context.Context, loc browser.Locator) error {
	f.record("click " + loc.String())
	if f.OnClick != nil {
		return f.OnClick(f, loc)
	}
	return nil
}

func (f *Fake) Exists(ctx context.Context, loc browser.Locator) (bool, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.Present[loc.String()], nil
}

func (f *Fake) Content(ctx context.Context) (string, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	html, ok := f.Pages[f.current]
	if !ok {
		return "", fmt.Errorf("no page scripted for %s", f.current)
	}
	return html, nil
}

func (f *Fake) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.CookieJar, nil
}

func (f *Fake) Requests(substr string) []browser.Request {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []browser.Request
	for _, r := range f.requests {
		if strings.Contains(r.Url, substr) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Fake) Responses(substr string) []browser.Response {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	var out []browser.Response
	for _, r := range f.responses {
		if strings.Contains(r.Url, substr) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Fake) Capture(substrs ...string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.patterns = append(f.patterns, substrs...)
}

func (f *Fake) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closed = true
	return nil
}

func (f *Fake) Closed() bool {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.closed
}
