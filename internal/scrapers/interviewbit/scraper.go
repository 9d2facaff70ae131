// Package interviewbit scrapes the InterviewBit problem archive. Statements are public, the
// hints and editorial solutions are unlocked by a logged in browser and read from the
// responses the problem page receives.
package interviewbit

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/internal/scrapers/scraperutil"
	"cqscraper/internal/session"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const Name = "interviewbit"

// puzzleTopic lists multiple choice puzzles, which have no code to scrape.
const puzzleTopic = "Puzzles"

type Options struct {
	BaseUrl       string
	Username      string
	Password      string
	RatePerSecond float64
	LoginTimeout  time.Duration
	// HintTimeout bounds the wait for the hint responses of one problem.
	HintTimeout  time.Duration
	PollInterval time.Duration
	MaxRefreshes int
}

func (o *Options) defaults() {
	if o.BaseUrl == "" {
		o.BaseUrl = "https://www.interviewbit.com"
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = 30 * time.Second
	}
	if o.HintTimeout <= 0 {
		o.HintTimeout = 25 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
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
	tel = telemetry.NewScopedAPI("interviewbit_scraper", tel)

	http, err := httpclient.New(httpclient.Options{BaseUrl: opts.BaseUrl, RatePerSecond: opts.RatePerSecond}, tel)
	if err != nil {
		return nil, err
	}
	b.Capture("/v2/problems/")

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

// Catalog treats the offset as the page_offset of the problem listing.
func (s *Scraper) Catalog(ctx context.Context, pageOffset int) ([]crawl.Item, error) {
	problems, err := s.client.Problems(ctx, pageOffset)
	if err != nil {
		return nil, err
	}

	var items []crawl.Item
	for _, p := range problems.Array() {
		slug := p.Get("slug").String()
		item := crawl.Item{
			Name:       slug,
			Slug:       slug,
			Title:      p.Get("problem_statement").String(),
			Difficulty: p.Get("difficulty_level").String(),
			Raw:        p,
		}
		if p.Get("topic_title").String() == puzzleTopic {
			item.Ignore = "puzzle"
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Scraper) Fetch(ctx context.Context, item crawl.Item) (crawl.Record, error) {
	// without the problem page there is nothing worth storing
	data, err := s.client.ProblemData(ctx, item.Slug)
	if err != nil {
		return nil, fmt.Errorf("problem page: %w", err)
	}

	p := item.Raw
	meta := data.Get("meta")
	languages := meta.Get("languages")
	html := meta.Get("markdown_content").String()
	sections := extract.MarkdownSections(html)
	hintsMeta := data.Get("hints.hints")

	record := crawl.Record{
		"title":        item.Title,
		"title_slug":   item.Slug,
		"difficulty":   scraperutil.Value(p.Get("difficulty_level")),
		"company_tags": scraperutil.Value(p.Get("tags")),
		"category":     scraperutil.Value(p.Get("topic_title")),
		"source": map[string]any{
			"url":                           fmt.Sprintf("%s/problems/%s", s.baseUrl, item.Slug),
			"interviewbit_score":            scraperutil.Value(p.Get("score")),
			"interviewbit_avg_solving_time": scraperutil.Value(p.Get("average_solving_time")),
			"interviewbit_solved_count":     scraperutil.Value(p.Get("solved_by")),
		},
		"available_languages": languageNames(languages),
		"input_descriptor":    scraperutil.Value(meta.Get("input_descriptor")),
		"html_content":        scraperutil.String(meta.Get("markdown_content")),
		"description":         scraperutil.Optional(sections.Description),
		"constraints":         sections.Constraints,
		"input_format":        scraperutil.Optional(sections.InputFormat),
		"output_format":       scraperutil.Optional(sections.OutputFormat),
		"example_input":       sections.ExampleInput,
		"example_output":      sections.ExampleOutput,
		"example_explanation": sections.ExampleExplanation,
		"hints_meta":          scraperutil.Value(hintsMeta),
	}

	steps := crawl.NewSteps(s.tel, item.Name)
	record["code_snippets"] = crawl.Field(steps, "code-snippets", func() (map[string]any, error) {
		snippets := map[string]any{}
		var failure error
		languages.ForEach(func(id, name gjson.Result) bool {
			content, err := s.client.CodeSnippet(ctx, item.Slug, id.String())
			if err != nil {
				failure = err
				return false
			}
			snippets[name.String()] = scraperutil.Value(content)
			return true
		})
		return snippets, failure
	})

	found := crawl.Step(steps, "hints", func() (hints, error) {
		return s.Hints(ctx, item.Slug, hintsMeta)
	})
	record["hint"] = scraperutil.Optional(found.Hint)
	record["solution_approach"] = scraperutil.Optional(found.SolutionApproach)
	record["solutions"] = found.Solutions

	if err := steps.Err(); err != nil {
		return nil, err
	}
	return record, nil
}

func languageNames(languages gjson.Result) []string {
	names := []string{}
	languages.ForEach(func(_, name gjson.Result) bool {
		names = append(names, name.String())
		return true
	})
	return names
}
