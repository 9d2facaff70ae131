// Package codechef scrapes the CodeChef practice archive along with the user's accepted
// practice submissions.
package codechef

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/internal/scrapers/scraperutil"
	"cqscraper/internal/scrapers/submissions"
	"cqscraper/internal/session"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const Name = "codechef"

type Options struct {
	BaseUrl       string
	Username      string
	Password      string
	RatePerSecond float64
	// SampleProblem is the problem whose page is used to log in.
	SampleProblem string
	HeaderTimeout time.Duration
	PollInterval  time.Duration
	MaxRefreshes  int
}

func (o *Options) defaults() {
	if o.BaseUrl == "" {
		o.BaseUrl = "https://www.codechef.com"
	}
	if o.SampleProblem == "" {
		o.SampleProblem = "FOODCOST"
	}
	if o.HeaderTimeout <= 0 {
		o.HeaderTimeout = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
}

type Scraper struct {
	opts    Options
	baseUrl string
	client  client
	browser browser.API
	session *session.State
	tel     telemetry.API
}

func New(opts Options, b browser.API, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(b)
	assert.NotNil(tel)
	opts.defaults()
	tel = telemetry.NewScopedAPI("codechef_scraper", tel)

	http, err := httpclient.New(httpclient.Options{BaseUrl: opts.BaseUrl, RatePerSecond: opts.RatePerSecond}, tel)
	if err != nil {
		return nil, err
	}
	s := &Scraper{
		opts:    opts,
		baseUrl: strings.TrimSuffix(opts.BaseUrl, "/"),
		client:  client{http: http},
		browser: b,
		tel:     tel,
	}
	s.session = session.New(s.login, opts.MaxRefreshes, tel)
	return s, nil
}

func (s *Scraper) Name() string {
	return Name
}

// Catalog treats the offset as a page number of the problem listing.
func (s *Scraper) Catalog(ctx context.Context, page int) ([]crawl.Item, error) {
	problems, err := s.client.Problems(ctx, page)
	if err != nil {
		return nil, err
	}

	var items []crawl.Item
	for _, p := range problems.Array() {
		code := p.Get("code").String()
		items = append(items, crawl.Item{
			Name:       code,
			Slug:       code,
			Title:      p.Get("name").String(),
			Difficulty: p.Get("difficulty_rating").String(),
			Raw:        p,
		})
	}
	return items, nil
}

func (s *Scraper) Fetch(ctx context.Context, item crawl.Item) (crawl.Record, error) {
	p := item.Raw
	steps := crawl.NewSteps(s.tel, item.Name)
	info := crawl.Step(steps, "problem", func() (gjson.Result, error) {
		return s.client.Problem(ctx, item.Slug)
	})
	components := info.Get("problemComponents")

	record := crawl.Record{
		"title":                item.Title,
		"title_slug":           item.Slug,
		"difficulty_rating":    scraperutil.Value(p.Get("difficulty_rating")),
		"difficulty_threshold": scraperutil.Value(info.Get("difficultyThreshold")),
		"source": map[string]any{
			"total_submissions":                scraperutil.Value(p.Get("total_submissions")),
			"successful_submissions":           scraperutil.Value(p.Get("successful_submissions")),
			"distinct_successful_submissions":  scraperutil.Value(p.Get("distinct_successful_submissions")),
			"partially_successful_submissions": scraperutil.Value(p.Get("partially_successful_submissions")),
			"max_timelimit":                    scraperutil.Value(info.Get("max_timelimit")),
			"source_sizelimit":                 scraperutil.Value(info.Get("source_sizelimit")),
			"problem_author":                   scraperutil.Value(info.Get("problem_author")),
			"date_added":                       scraperutil.Value(info.Get("date_added")),
			"intended_contest_id":              scraperutil.Value(p.Get("intended_contest_id")),
			"actual_intended_contests":         scraperutil.Value(p.Get("actual_intended_contests")),
			"contest_code":                     scraperutil.Value(p.Get("contest_code")),
			"category_name":                    scraperutil.Value(info.Get("category_name")),
			"contest_category":                 scraperutil.Value(info.Get("contest_category")),
			"votes_data":                       scraperutil.Value(info.Get("votes_data")),
			"visited_contests":                 scraperutil.Value(info.Get("visitedContests")),
			"is_supported_by_judge":            scraperutil.Value(info.Get("isSupportedByJudge")),
		},
		"constraints":         scraperutil.Value(components.Get("constraints")),
		"problem_description": scraperutil.Value(components.Get("statement")),
		"input_format":        scraperutil.Value(components.Get("inputFormat")),
		"output_format":       scraperutil.Value(components.Get("outputFormat")),
		"testcases":           scraperutil.Value(components.Get("sampleTestCases")),
		"special_testcases":   scraperutil.Value(info.Get("specialTestCases")),
		"hints":               scraperutil.Value(info.Get("hints")),
		"cheat_codes":         scraperutil.Value(info.Get("cheatCodes")),
		"available_languages": languages(info.Get("languages_supported")),
	}

	record["user_solutions"] = crawl.Field(steps, "submissions", func() (map[string][]any, error) {
		return s.collector(item.Slug).Collect(ctx, 1)
	})

	if err := steps.Err(); err != nil {
		return nil, err
	}
	return record, nil
}

func languages(r gjson.Result) any {
	if r.Type == gjson.String {
		return strings.Split(r.Str, ", ")
	}
	return scraperutil.Value(r)
}

func (s *Scraper) collector(code string) submissions.Collector[int] {
	return submissions.Collector[int]{
		Accepted: AcceptedVerdict,
		// the same code is often resubmitted
		Dedupe: true,
		Tel:    s.tel,
		List: func(ctx context.Context, page int) (submissions.Page[int], error) {
			return session.Do(ctx, s.session, func(ctx context.Context, creds session.Credentials) (submissions.Page[int], error) {
				return s.client.Submissions(ctx, creds, code, page)
			})
		},
		Code: func(ctx context.Context, sub submissions.Submission) (submissions.Solution, error) {
			data, err := session.Do(ctx, s.session, func(ctx context.Context, creds session.Credentials) (gjson.Result, error) {
				return s.client.SubmissionCode(ctx, creds, sub.Id)
			})
			if err != nil {
				return submissions.Solution{}, err
			}
			return submissions.Solution{
				Language: data.Get("language.full_name").String(),
				Code:     scraperutil.Value(data.Get("code")),
			}, nil
		},
	}
}
