// Package techiedelight scrapes the TechieDelight practice problems. The problem index and
// pages are rendered by a browser, the code and testcase templates are plain requests.
package techiedelight

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"cqscraper/internal/extract"
	"cqscraper/pkg/htmlutil"
	"cqscraper/pkg/textutil"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

const Name = "techiedelight"

const DefaultPageSize = 50

// languageThreshold is the Jaro-Winkler similarity an editorial tab title needs to be filed
// under a known language.
const languageThreshold = 0.85

var languages = []string{"c", "c++", "c#", "java", "python", "javascript", "go", "kotlin"}

type Options struct {
	BaseUrl       string
	RatePerSecond float64
	Cache         *httpclient.Cache
	// PageSize is the number of index entries one catalog offset covers.
	PageSize int
}

type Scraper struct {
	baseUrl  *url.URL
	pageSize int
	client   client
	browser  browser.API
	tel      telemetry.API

	index []string
}

func New(opts Options, b browser.API, tel telemetry.API) (*Scraper, error) {
	assert.NotNil(b)
	assert.NotNil(tel)
	if opts.BaseUrl == "" {
		opts.BaseUrl = "https://www.techiedelight.com"
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	tel = telemetry.NewScopedAPI("techiedelight_scraper", tel)

	http, err := httpclient.New(httpclient.Options{
		BaseUrl:       opts.BaseUrl,
		RatePerSecond: opts.RatePerSecond,
		Cache:         opts.Cache,
	}, tel)
	if err != nil {
		return nil, err
	}
	return &Scraper{
		baseUrl:  http.BaseUrl,
		pageSize: opts.PageSize,
		client:   client{http: http, baseUrl: strings.TrimSuffix(opts.BaseUrl, "/")},
		browser:  b,
		tel:      tel,
	}, nil
}

func (s *Scraper) Name() string {
	return Name
}

// problemUrls renders the home page and lists the problem links in index order.
func (s *Scraper) problemUrls(ctx context.Context) ([]string, error) {
	err := s.browser.Navigate(ctx, s.baseUrl.String())
	if err != nil {
		return nil, err
	}
	page, err := s.browser.Content(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, crawl.Retryable(err)
	}

	var urls []string
	for _, anchor := range htmlutil.GetAnchors(s.baseUrl, doc.Find("span#problemsList ol li a")) {
		urls = append(urls, anchor.Url.String())
	}
	if len(urls) == 0 {
		return nil, crawl.Retryable(errors.New("home page lists no problems"))
	}
	return urls, nil
}

// Catalog serves the window of the problem index starting at offset. The index is read
// once per scraper, a failed read is retried on the next call.
func (s *Scraper) Catalog(ctx context.Context, offset int) ([]crawl.Item, error) {
	if s.index == nil {
		urls, err := s.problemUrls(ctx)
		if err != nil {
			return nil, err
		}
		s.index = urls
		s.tel.ReportDebug("problem index", len(urls))
	}
	if offset < 0 || offset >= len(s.index) {
		return nil, nil
	}

	end := min(offset+s.pageSize, len(s.index))
	var items []crawl.Item
	for _, problemUrl := range s.index[offset:end] {
		slug := slugOf(problemUrl)
		raw, err := json.Marshal(map[string]string{"url": problemUrl})
		if err != nil {
			return nil, err
		}
		items = append(items, crawl.Item{
			Name:  slug,
			Slug:  slug,
			Title: slug,
			Raw:   gjson.ParseBytes(raw),
		})
	}
	return items, nil
}

// slugOf returns the problem query parameter of an index link.
func slugOf(problemUrl string) string {
	parsed, err := url.Parse(problemUrl)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Query().Get("problem"))
}

type problemPage struct {
	html         string
	editorialUrl string
}

func (s *Scraper) problemPage(ctx context.Context, problemUrl string) (problemPage, error) {
	err := s.browser.Navigate(ctx, problemUrl)
	if err != nil {
		return problemPage{}, err
	}
	content, err := s.browser.Content(ctx)
	if err != nil {
		return problemPage{}, err
	}

	page := problemPage{html: extract.RemoveCSS(content)}
	if href, ok := extract.Anchor(content, "a#editorial"); ok {
		editorial, err := s.baseUrl.Parse(href)
		if err == nil {
			page.editorialUrl = editorial.String()
		}
	}
	return page, nil
}

// editorialSolutions groups the code blocks of the editorial by language, merging tab
// titles that name the same language.
func (s *Scraper) editorialSolutions(ctx context.Context, editorialUrl string) (map[string][]string, error) {
	if editorialUrl == "" {
		return nil, crawl.Missing("editorial link")
	}
	err := s.browser.Navigate(ctx, editorialUrl)
	if err != nil {
		return nil, err
	}
	content, err := s.browser.Content(ctx)
	if err != nil {
		return nil, err
	}

	out := map[string][]string{}
	for title, blocks := range extract.Tabs(content) {
		language, ok := textutil.Closest(title, languages, languageThreshold)
		if !ok {
			language = title
		}
		out[language] = append(out[language], blocks...)
	}
	return out, nil
}

func (s *Scraper) Fetch(ctx context.Context, item crawl.Item) (crawl.Record, error) {
	problemUrl := item.Raw.Get("url").String()
	steps := crawl.NewSteps(s.tel, item.Name)

	snippets := map[string]any{}
	for _, t := range templateExtensions {
		snippets[t.Key] = crawl.Field(steps, "template-"+t.Extension, func() (string, error) {
			return s.client.Template(ctx, item.Slug, t.Extension)
		})
	}

	page := crawl.Step(steps, "problem-page", func() (problemPage, error) {
		return s.problemPage(ctx, problemUrl)
	})

	testcases := crawl.Field(steps, "testcases", func() (map[string]any, error) {
		dirty, err := s.client.Testcases(ctx, item.Slug)
		if err != nil {
			return nil, err
		}
		return map[string]any{"dirty": dirty, "cleaned": CleanTestcases(dirty)}, nil
	})

	solutions := crawl.Field(steps, "editorial", func() (map[string][]string, error) {
		return s.editorialSolutions(ctx, page.editorialUrl)
	})

	if err := steps.Err(); err != nil {
		return nil, err
	}
	return crawl.Record{
		"slug":                item.Slug,
		"title_slug":          item.Slug,
		"url":                 problemUrl,
		"code_snippets":       snippets,
		"html":                nilIfEmpty(page.html),
		"testcases":           testcases,
		"editorial_url":       nilIfEmpty(page.editorialUrl),
		"editorial_solutions": solutions,
	}, nil
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
