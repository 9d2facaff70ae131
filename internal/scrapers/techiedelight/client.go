package techiedelight

import (
	"context"
	"cqscraper/internal/components/httpclient"
	"fmt"
	"net/http"
)

// templateExtensions maps a code snippet key to the extension of its template.
var templateExtensions = []struct {
	Key       string
	Extension string
}{
	{"cpp", "cpp"},
	{"python", "py"},
	{"java", "java"},
}

type client struct {
	http    *httpclient.Client
	baseUrl string
}

// templateHeader mimics the xhr the practice page sends for its templates.
func (c client) templateHeader(slug string) http.Header {
	return http.Header{
		"Accept":           {"*/*"},
		"Referer":          {fmt.Sprintf("%s/?problem=%s", c.baseUrl, slug)},
		"X-Requested-With": {"XMLHttpRequest"},
	}
}

func (c client) Template(ctx context.Context, slug, extension string) (string, error) {
	body, err := c.http.Cached(ctx, fmt.Sprintf("/practice/template/%s/%s.%s", slug, slug, extension), c.templateHeader(slug))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Testcases returns the raw testcase template of a problem.
func (c client) Testcases(ctx context.Context, slug string) (string, error) {
	body, err := c.http.Cached(ctx, fmt.Sprintf("/practice/template/%s/%s", slug, slug), c.templateHeader(slug))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
