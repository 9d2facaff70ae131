// Package browser drives a real browser for the steps that need script execution or a
// logged in page: login forms, client rendered catalogs and responses the page fetches itself.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// API is the browser automation collaborator.
//
// note: fault injection point
type API interface {
	// Navigate loads the url and waits for the body to be ready.
	Navigate(ctx context.Context, url string) error
	// Fill clears the located input and types value into it.
	Fill(ctx context.Context, loc Locator, value string) error
	Click(ctx context.Context, loc Locator) error
	// Exists reports whether the locator currently matches a node, without waiting.
	Exists(ctx context.Context, loc Locator) (bool, error)
	// Content returns the serialized DOM of the current page.
	Content(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	// Requests returns the requests sent by the page whose url contains substr.
	Requests(substr string) []Request
	// Responses returns the bodies of responses whose url contains substr. Only urls matching a
	// pattern given to Capture are recorded.
	Responses(substr string) []Response
	Capture(substrs ...string)
	Close() error
}

type Request struct {
	Url     string
	Headers http.Header
}

type Response struct {
	Url    string
	Status int
	Body   []byte
}

type locatorKind int

const (
	locateCSS locatorKind = iota
	locateText
	locatePlaceholder
	locateRole
)

// Locator identifies an element the way a user would: by css selector, visible text,
// placeholder or accessible role and name.
type Locator struct {
	kind  locatorKind
	value string
	name  string
}

func ByCSS(selector string) Locator {
	return Locator{kind: locateCSS, value: selector}
}

func ByText(text string) Locator {
	return Locator{kind: locateText, value: text}
}

func ByPlaceholder(placeholder string) Locator {
	return Locator{kind: locatePlaceholder, value: placeholder}
}

// ByRole locates an element by ARIA role ("button", "textbox", "link") and accessible name.
func ByRole(role, name string) Locator {
	return Locator{kind: locateRole, value: role, name: name}
}

func (l Locator) String() string {
	switch l.kind {
	case locateCSS:
		return fmt.Sprintf("css=%s", l.value)
	case locateText:
		return fmt.Sprintf("text=%s", l.value)
	case locatePlaceholder:
		return fmt.Sprintf("placeholder=%s", l.value)
	case locateRole:
		return fmt.Sprintf("role=%s[name=%s]", l.value, l.name)
	}
	return "unknown locator"
}

// xpathLiteral quotes s for use inside an xpath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}

// query returns the selector for the locator and whether it is an xpath expression.
func (l Locator) query() (string, bool) {
	switch l.kind {
	case locateCSS:
		return l.value, false
	case locatePlaceholder:
		return fmt.Sprintf("//*[@placeholder=%s]", xpathLiteral(l.value)), true
	case locateText:
		return fmt.Sprintf(
			"//*[normalize-space(text())=%[1]s or (not(*) and normalize-space(.)=%[1]s)]",
			xpathLiteral(l.value),
		), true
	case locateRole:
		name := xpathLiteral(l.name)
		lower := xpathLiteral(strings.ToLower(l.name))
		switch l.value {
		case "button":
			return fmt.Sprintf(
				"//button[normalize-space(.)=%[1]s or @aria-label=%[1]s] | //*[@role='button'][normalize-space(.)=%[1]s or @aria-label=%[1]s] | //input[@type='submit'][@value=%[1]s]",
				name,
			), true
		case "textbox":
			return fmt.Sprintf(
				"//input[@aria-label=%[1]s or @placeholder=%[1]s or @name=%[2]s or @type=%[2]s or @id=%[2]s] | //textarea[@aria-label=%[1]s or @placeholder=%[1]s] | //*[@role='textbox'][@aria-label=%[1]s]",
				name, lower,
			), true
		case "link":
			return fmt.Sprintf("//a[normalize-space(.)=%[1]s or @aria-label=%[1]s]", name), true
		}
		return fmt.Sprintf("//*[@role=%s][normalize-space(.)=%s or @aria-label=%s]", xpathLiteral(l.value), name, name), true
	}
	return "", false
}
