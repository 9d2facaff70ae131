package interviewbit

import (
	"context"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

const (
	PageSize = 20
	// problemsVariable is the script global the problem page is rendered from.
	problemsVariable = "window.__INTERVIEWBIT__.problemsData"
)

type client struct {
	http *httpclient.Client
}

func (c client) Problems(ctx context.Context, pageOffset int) (gjson.Result, error) {
	res, err := c.http.GetJSON(ctx, "/v2/problem_list/", url.Values{
		"page_offset": {strconv.Itoa(pageOffset)},
		"page_limit":  {strconv.Itoa(PageSize)},
	}, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	items := res.Get("items")
	if !items.Exists() {
		return gjson.Result{}, crawl.Retryable(errors.New("problem listing without items"))
	}
	return items, nil
}

// ProblemData returns the problem document embedded in the problem page.
func (c client) ProblemData(ctx context.Context, slug string) (gjson.Result, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("/problems/%s/", url.PathEscape(slug)), nil, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	data, ok := extract.AssignedJSON(string(body), problemsVariable)
	if !ok {
		return gjson.Result{}, crawl.Missing(problemsVariable)
	}
	return data, nil
}

func (c client) CodeSnippet(ctx context.Context, slug, languageId string) (gjson.Result, error) {
	res, err := c.http.GetJSON(
		ctx,
		fmt.Sprintf("/v2/problems/%s/codes/", url.PathEscape(slug)),
		url.Values{"programming_language_id": {languageId}},
		nil,
	)
	if err != nil {
		return gjson.Result{}, err
	}
	return res.Get("content"), nil
}
