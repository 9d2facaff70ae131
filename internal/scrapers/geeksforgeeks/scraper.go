// Package geeksforgeeks scrapes the GeeksforGeeks practice archive. The listing is public,
// the problem metadata and the user's accepted submissions need a logged in browser session.
package geeksforgeeks

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/internal/scrapers/scraperutil"
	"cqscraper/internal/scrapers/submissions"
	"cqscraper/internal/session"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

const Name = "geeksforgeeks"

const report_scraper_visit = "scraper.visit"

type Options struct {
	ApiUrl        string
	SiteUrl       string
	AuthUrl       string
	Username      string
	Password      string
	RatePerSecond float64
	// CookieTimeout bounds the wait for the session cookie after login and problem visits.
	CookieTimeout time.Duration
	PollInterval  time.Duration
	MaxRefreshes  int
}

func (o *Options) defaults() {
	if o.ApiUrl == "" {
		o.ApiUrl = "https://practiceapi.geeksforgeeks.org"
	}
	if o.SiteUrl == "" {
		o.SiteUrl = "https://www.geeksforgeeks.org"
	}
	if o.AuthUrl == "" {
		o.AuthUrl = "https://auth.geeksforgeeks.org/?to=https://www.geeksforgeeks.org/"
	}
	if o.CookieTimeout <= 0 {
		o.CookieTimeout = 20 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
}

type Scraper struct {
	opts    Options
	client  client
	siteUrl *url.URL
	browser browser.API
	session *session.State
	tel     telemetry.API
}

func New(opts Options, b browser.API, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(b)
	assert.NotNil(tel)
	opts.defaults()
	tel = telemetry.NewScopedAPI("geeksforgeeks_scraper", tel)

	api, err := httpclient.New(httpclient.Options{BaseUrl: opts.ApiUrl, RatePerSecond: opts.RatePerSecond}, tel)
	if err != nil {
		return nil, err
	}
	site, err := httpclient.New(httpclient.Options{BaseUrl: opts.SiteUrl, RatePerSecond: opts.RatePerSecond}, tel)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		opts:    opts,
		client:  client{api: api, site: site},
		siteUrl: site.BaseUrl,
		browser: b,
		tel:     tel,
	}
	s.session = session.New(s.login, opts.MaxRefreshes, tel)
	return s, nil
}

func (s *Scraper) Name() string {
	return Name
}

// Catalog treats the offset as a page number of the explore listing.
func (s *Scraper) Catalog(ctx context.Context, page int) ([]crawl.Item, error) {
	problems, err := s.client.Problems(ctx, page)
	if err != nil {
		return nil, err
	}

	var items []crawl.Item
	for _, p := range problems.Array() {
		slug := p.Get("slug").String()
		items = append(items, crawl.Item{
			Name:       slug,
			Slug:       slug,
			Title:      p.Get("problem_name").String(),
			Difficulty: p.Get("difficulty").String(),
			Raw:        p,
		})
	}
	return items, nil
}

// problemUrl moves the listed problem url onto the configured site so the same path is
// used for the browser visit and the page fetch.
func (s *Scraper) problemUrl(listed string) string {
	parsed, err := url.Parse(listed)
	if err != nil {
		return listed
	}
	return s.siteUrl.ResolveReference(&url.URL{Path: parsed.Path, RawQuery: parsed.RawQuery}).String()
}

func (s *Scraper) Fetch(ctx context.Context, item crawl.Item) (crawl.Record, error) {
	p := item.Raw
	problemUrl := s.problemUrl(p.Get("problem_url").String())

	record := crawl.Record{
		"title":      item.Title,
		"title_slug": item.Slug,
		"difficulty": item.Difficulty,
		"source": map[string]any{
			"url":                 p.Get("problem_url").String(),
			"gfg_accuracy":        scraperutil.Value(p.Get("accuracy")),
			"gfg_question_id":     scraperutil.Value(p.Get("id")),
			"all_gfg_submissions": scraperutil.Value(p.Get("all_submissions")),
			"problem_type":        scraperutil.Value(p.Get("problem_type")),
			"problem_level":       scraperutil.Value(p.Get("problem_level")),
			"gfg_marks":           scraperutil.Value(p.Get("marks")),
			"content_type":        scraperutil.Value(p.Get("content_type")),
			"visibility_type":     scraperutil.Value(p.Get("visibility_type")),
			"topic_order":         scraperutil.Value(p.Get("topic_order")),
		},
		"tags":         scraperutil.Value(p.Get("tags.topic_tags")),
		"company_tags": scraperutil.Value(p.Get("tags.company_tags")),
	}

	steps := crawl.NewSteps(s.tel, item.Name)
	steps.Run("visit", func() error {
		return s.visit(ctx, problemUrl)
	})

	meta := crawl.Step(steps, "metainfo", func() (gjson.Result, error) {
		return session.Do(ctx, s.session, func(ctx context.Context, creds session.Credentials) (gjson.Result, error) {
			return s.client.MetaInfo(ctx, creds, item.Slug)
		})
	})
	problemId := meta.Get("id").String()
	record["problem_id"] = scraperutil.Value(meta.Get("id"))

	html := crawl.Step(steps, "problem-html", func() (string, error) {
		return s.client.ProblemHtml(ctx, problemUrl)
	})
	partial := extract.Problem(html)
	record["html_content"] = nilIfEmpty(html)
	record["problem_description"] = scraperutil.Optional(partial.Description)
	record["constraints"] = partial.Constraints
	record["testcases"] = map[string]any{
		"formatted":    scraperutil.Value(meta.Get("extra.input")),
		"half_cleaned": partial.Examples,
	}

	record["available_languages"] = objectKeys(meta.Get("extra.problem_languages"))
	record["code_snippets"] = codeSnippets(meta.Get("extra.initial_user_func"))

	record["user_solutions"] = crawl.Field(steps, "submissions", func() (map[string][]any, error) {
		if problemId == "" {
			return nil, crawl.Missing("problem id")
		}
		return s.collector(problemId).Collect(ctx, nil)
	})

	if err := steps.Err(); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *Scraper) collector(problemId string) submissions.Collector[url.Values] {
	return submissions.Collector[url.Values]{
		Accepted: AcceptedVerdict,
		Tel:      s.tel,
		List: func(ctx context.Context, cursor url.Values) (submissions.Page[url.Values], error) {
			return session.Do(ctx, s.session, func(ctx context.Context, creds session.Credentials) (submissions.Page[url.Values], error) {
				return s.client.Submissions(ctx, creds, problemId, cursor)
			})
		},
		Code: func(ctx context.Context, sub submissions.Submission) (submissions.Solution, error) {
			code, err := session.Do(ctx, s.session, func(ctx context.Context, creds session.Credentials) (gjson.Result, error) {
				return s.client.SubmissionCode(ctx, creds, sub.Id)
			})
			if err != nil {
				return submissions.Solution{}, err
			}
			return submissions.Solution{Code: map[string]any{
				"gfg_code":  scraperutil.Value(code.Get("code")),
				"user_code": scraperutil.Value(code.Get("user_code")),
			}}, nil
		},
	}
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func objectKeys(r gjson.Result) any {
	if !r.IsObject() {
		return nil
	}
	keys := []string{}
	r.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

func codeSnippets(r gjson.Result) any {
	if !r.IsObject() {
		return nil
	}
	out := map[string]any{}
	r.ForEach(func(lang, snippet gjson.Result) bool {
		out[lang.String()] = map[string]any{
			"initial_code": scraperutil.Value(snippet.Get("initial_code")),
			"user_code":    scraperutil.Value(snippet.Get("user_code")),
		}
		return true
	})
	return out
}
