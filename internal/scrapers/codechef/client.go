package codechef

import (
	"context"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/crawl"
	"cqscraper/internal/scrapers/submissions"
	"cqscraper/internal/session"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

const (
	PageSize           = 50
	SubmissionPageSize = 10
	// AcceptedVerdict is the tooltip of an accepted submission.
	AcceptedVerdict = "accepted"
)

type client struct {
	http *httpclient.Client
}

func authenticated(creds session.Credentials) http.Header {
	header := http.Header{}
	creds.Apply(header)
	return header
}

func (c client) Problems(ctx context.Context, page int) (gjson.Result, error) {
	res, err := c.http.GetJSON(ctx, "/api/list/problems", url.Values{
		"limit": {strconv.Itoa(PageSize)},
		"page":  {strconv.Itoa(page)},
	}, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	data := res.Get("data")
	if !data.Exists() {
		return gjson.Result{}, crawl.Retryable(errors.New("problem listing without data"))
	}
	return data, nil
}

func (c client) Problem(ctx context.Context, code string) (gjson.Result, error) {
	res, err := c.http.GetJSON(ctx, "/api/contests/PRACTICE/problems/"+url.PathEscape(code), nil, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	if res.Get("status").String() == "error" {
		return gjson.Result{}, crawl.Missing("problem " + code)
	}
	return res, nil
}

// Submissions returns one page of the user's practice submissions to a problem, pages
// start at 1. The api answers an expired session with status apierror.
func (c client) Submissions(ctx context.Context, creds session.Credentials, code string, page int) (submissions.Page[int], error) {
	res, err := c.http.GetJSON(
		ctx,
		"/api/submissions/PRACTICE/"+url.PathEscape(code),
		url.Values{"limit": {strconv.Itoa(SubmissionPageSize)}, "page": {strconv.Itoa(page)}},
		authenticated(creds),
	)
	if err != nil {
		return submissions.Page[int]{}, err
	}
	if res.Get("status").String() == "apierror" {
		return submissions.Page[int]{}, crawl.AuthExpired(fmt.Errorf("submissions of %s: %s", code, res.Get("message").String()))
	}

	out := submissions.Page[int]{Next: page + 1}
	for _, item := range res.Get("data").Array() {
		out.Items = append(out.Items, submissions.Submission{
			Id:       item.Get("id").String(),
			Language: item.Get("language").String(),
			Verdict:  item.Get("tooltip").String(),
		})
	}
	return out, nil
}

func (c client) SubmissionCode(ctx context.Context, creds session.Credentials, id string) (gjson.Result, error) {
	res, err := c.http.GetJSON(ctx, "/api/submission-code/"+url.PathEscape(id), nil, authenticated(creds))
	if err != nil {
		return gjson.Result{}, err
	}
	data := res.Get("data")
	if !data.IsObject() {
		return gjson.Result{}, crawl.Missing("code of submission " + id)
	}
	return data, nil
}
