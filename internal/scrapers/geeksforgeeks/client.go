package geeksforgeeks

import (
	"context"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/internal/scrapers/submissions"
	"cqscraper/internal/session"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// AcceptedVerdict is the exec_status_text of an accepted submission.
const AcceptedVerdict = "Correct"

type client struct {
	api  *httpclient.Client
	site *httpclient.Client
}

func authenticated(creds session.Credentials) http.Header {
	header := http.Header{}
	creds.Apply(header)
	return header
}

// Problems returns the explore listing at the given page.
func (c client) Problems(ctx context.Context, page int) (gjson.Result, error) {
	res, err := c.api.GetJSON(
		ctx,
		"/api/vr/problems/",
		url.Values{"pageMode": {"explore"}, "page": {strconv.Itoa(page)}},
		http.Header{"Origin": {"https://www.geeksforgeeks.org"}},
	)
	if err != nil {
		return gjson.Result{}, err
	}
	results := res.Get("results")
	if !results.Exists() {
		return gjson.Result{}, crawl.Retryable(errors.New("problem listing without results"))
	}
	return results, nil
}

func (c client) MetaInfo(ctx context.Context, creds session.Credentials, slug string) (gjson.Result, error) {
	res, err := c.api.GetJSON(ctx, fmt.Sprintf("/api/latest/problems/%s/metainfo/", slug), nil, authenticated(creds))
	if err != nil {
		return gjson.Result{}, err
	}
	results := res.Get("results")
	if !results.IsObject() {
		return gjson.Result{}, crawl.Missing("metainfo of " + slug)
	}
	return results, nil
}

// Submissions returns one page of the user's submissions to a problem. The cursor holds the
// last_submission_key parameters of the previous page, nil for the first one.
func (c client) Submissions(ctx context.Context, creds session.Credentials, problemId string, cursor url.Values) (submissions.Page[url.Values], error) {
	res, err := c.api.GetJSON(ctx, fmt.Sprintf("/api/latest/problems/%s/submissions/", problemId), cursor, authenticated(creds))
	if err != nil {
		return submissions.Page[url.Values]{}, err
	}

	list := res.Get("message.submissions")
	page := submissions.Page[url.Values]{}
	for _, item := range list.Get("Items").Array() {
		page.Items = append(page.Items, submissions.Submission{
			Id:       item.Get("submission_id").String(),
			Language: item.Get("lang").String(),
			Verdict:  item.Get("exec_status_text").String(),
		})
	}

	last := list.Get("LastEvaluatedKey")
	if !last.Exists() {
		page.Last = true
		return page, nil
	}
	page.Next = url.Values{
		"last_submission_key":      {last.Get("submission_id").String()},
		"last_submission_key_time": {last.Get("subtime").String()},
	}
	return page, nil
}

func (c client) SubmissionCode(ctx context.Context, creds session.Credentials, submissionId string) (gjson.Result, error) {
	return c.api.GetJSON(ctx, fmt.Sprintf("/api/latest/problems/submissions/%s/", submissionId), nil, authenticated(creds))
}

// ProblemHtml returns the statement markup embedded in the problem page.
func (c client) ProblemHtml(ctx context.Context, problemPath string) (string, error) {
	body, err := c.site.Get(ctx, problemPath, nil, nil)
	if err != nil {
		return "", err
	}
	data, ok := extract.NextData(string(body))
	if !ok {
		return "", crawl.Missing("__NEXT_DATA__")
	}
	question := data.Get("props.pageProps.initialState.problemData.allData.probData.problem_question")
	if !question.Exists() {
		return "", crawl.Missing("problem_question")
	}
	return question.String(), nil
}
