// Package leetcode scrapes the public LeetCode problem set through its GraphQL API.
package leetcode

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/internal/scrapers/scraperutil"
	"fmt"

	"github.com/tidwall/gjson"
)

const Name = "leetcode"

const DefaultBaseUrl = "https://leetcode.com"

type Options struct {
	BaseUrl       string
	RatePerSecond float64
	Cache         *httpclient.Cache
}

type Scraper struct {
	client  client
	baseUrl string
	tel     telemetry.API
}

func New(opts Options, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(tel)
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	tel = telemetry.NewScopedAPI("leetcode_scraper", tel)

	http, err := httpclient.New(httpclient.Options{
		BaseUrl:       opts.BaseUrl,
		RatePerSecond: opts.RatePerSecond,
		Cache:         opts.Cache,
	}, tel)
	if err != nil {
		return nil, err
	}
	return &Scraper{client: client{http: http}, baseUrl: opts.BaseUrl, tel: tel}, nil
}

func (s *Scraper) Name() string {
	return Name
}

// Catalog treats the offset as the number of questions to skip.
func (s *Scraper) Catalog(ctx context.Context, offset int) ([]crawl.Item, error) {
	questions, err := s.client.Questions(ctx, offset)
	if err != nil {
		return nil, err
	}

	var items []crawl.Item
	for _, q := range questions.Array() {
		slug := q.Get("titleSlug").String()
		items = append(items, crawl.Item{
			Name:       fmt.Sprintf("%s_%s", q.Get("frontendQuestionId").String(), slug),
			Slug:       slug,
			Title:      q.Get("title").String(),
			Difficulty: q.Get("difficulty").String(),
			Raw:        q,
		})
	}
	return items, nil
}

func (s *Scraper) Fetch(ctx context.Context, item crawl.Item) (crawl.Record, error) {
	q := item.Raw
	record := crawl.Record{
		"title":      item.Title,
		"title_slug": item.Slug,
		"difficulty": item.Difficulty,
		"source": map[string]any{
			"leetcode_question_id": q.Get("frontendQuestionId").String(),
			"url":                  fmt.Sprintf("%s/problems/%s/", s.baseUrl, item.Slug),
			"ac_rate":              scraperutil.Value(q.Get("acRate")),
			"likes":                scraperutil.Value(q.Get("likes")),
			"dislikes":             scraperutil.Value(q.Get("dislikes")),
			"paid_only":            scraperutil.Value(q.Get("paidOnly")),
			"has_solution":         scraperutil.Value(q.Get("hasSolution")),
			"has_video_solution":   scraperutil.Value(q.Get("hasVideoSolution")),
		},
		"tags": scraperutil.Strings(q.Get("topicTags"), "name"),
	}

	steps := crawl.NewSteps(s.tel, item.Name)
	question := crawl.Step(steps, "question", func() (gjson.Result, error) {
		return s.client.Question(ctx, item.Slug)
	})
	if err := steps.Err(); err != nil {
		return nil, err
	}

	content := question.Get("content").String()
	partial := extract.Problem(content)

	record["html_content"] = scraperutil.String(question.Get("content"))
	record["problem_description"] = scraperutil.Optional(partial.Description)
	record["constraints"] = partial.Constraints
	record["testcases"] = map[string]any{
		"example_testcases": scraperutil.Value(question.Get("exampleTestcaseList")),
		"half_cleaned":      partial.Examples,
	}
	record["code_snippets"] = codeSnippets(question.Get("codeSnippets"))
	record["hints"] = scraperutil.Value(question.Get("hints"))
	record["meta_data"] = scraperutil.Embedded(question.Get("metaData"))
	record["company_tag_stats"] = scraperutil.Embedded(question.Get("companyTagStats"))
	record["stats"] = scraperutil.Embedded(question.Get("stats"))
	record["env_info"] = scraperutil.Embedded(question.Get("envInfo"))
	return record, nil
}

func codeSnippets(snippets gjson.Result) map[string]string {
	if !snippets.IsArray() {
		return nil
	}
	out := map[string]string{}
	for _, snippet := range snippets.Array() {
		out[snippet.Get("langSlug").String()] = snippet.Get("code").String()
	}
	return out
}
