// Package httpclient builds the resty clients every scraper talks to its site with.
package httpclient

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const report_client_cache = "client.cache"

type Options struct {
	BaseUrl string
	// RatePerSecond bounds the requests sent to the site, zero means 2 per second.
	RatePerSecond float64
	Timeout       time.Duration
	UserAgent     string
	// Cache, when set, serves Cached requests without touching the network.
	Cache *Cache
}

type Client struct {
	Http    *resty.Client
	BaseUrl *url.URL
	cache   *Cache
	tel     telemetry.API
}

func New(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client.SetTimeout(timeout)

	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 2
	}
	// burst >= the rate just means that no requests will be dropped
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	rateLimiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	tel = telemetry.NewScopedAPI("http", tel)
	telemetry.InstrumentResty(client, tel)

	return &Client{
		Http:    client,
		BaseUrl: baseUrl,
		cache:   opts.Cache,
		tel:     tel,
	}, nil
}

// R starts a request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.Http.R().SetContext(ctx)
}

// Classify turns the result of a resty call into a body or a crawl error of the right kind.
func Classify(res *resty.Response, err error) ([]byte, error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, crawl.Retryable(fmt.Errorf("timeout: %w", err))
		}
		return nil, crawl.Retryable(err)
	}

	status := res.StatusCode()
	switch {
	case status == http.StatusForbidden && !carriesCredentials(res.Request.Header):
		// anonymous requests get 403 from anti-bot challenges, not from an expired session
		return nil, crawl.Retryable(fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, res.Status()))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, crawl.AuthExpired(fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, res.Status()))
	case status == http.StatusNotFound:
		return nil, crawl.Missing(res.Request.URL)
	case status >= 400:
		return nil, crawl.Retryable(fmt.Errorf("%s %s: %s", res.Request.Method, res.Request.URL, res.Status()))
	}
	return res.Body(), nil
}

func carriesCredentials(header http.Header) bool {
	for _, name := range []string{"Cookie", "Authorization", "X-Csrf-Token"} {
		if header.Get(name) != "" {
			return true
		}
	}
	return false
}

// JSON validates a response body as json and returns it for gjson navigation.
func JSON(body []byte, err error) (gjson.Result, error) {
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		// usually an anti-bot interstitial or a truncated body
		return gjson.Result{}, crawl.Retryable(fmt.Errorf("response is not json: %.80q", body))
	}
	return gjson.ParseBytes(body), nil
}

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, header http.Header) ([]byte, error) {
	req := c.R(ctx)
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}
	for k := range header {
		req.SetHeader(k, header.Get(k))
	}
	return Classify(req.Get(endpoint))
}

func (c *Client) GetJSON(ctx context.Context, endpoint string, query url.Values, header http.Header) (gjson.Result, error) {
	return JSON(c.Get(ctx, endpoint, query, header))
}

func (c *Client) PostJSON(ctx context.Context, endpoint string, body any, header http.Header) (gjson.Result, error) {
	req := c.R(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body)
	for k := range header {
		req.SetHeader(k, header.Get(k))
	}
	return JSON(Classify(req.Post(endpoint)))
}

// Cached is Get for resources that rarely change. Hits skip the network, misses are fetched
// and stored. Cache failures only cost a request.
func (c *Client) Cached(ctx context.Context, endpoint string, header http.Header) ([]byte, error) {
	if c.cache == nil {
		return c.Get(ctx, endpoint, nil, header)
	}

	full, err := c.BaseUrl.Parse(endpoint)
	if err != nil {
		return nil, crawl.Fatal(fmt.Errorf("resolve %s: %w", endpoint, err))
	}

	body, err := c.cache.Get(ctx, full.String())
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.tel.ReportWarning(report_client_cache, err, full.String())
	}

	body, err = c.Get(ctx, endpoint, nil, header)
	if err != nil {
		return nil, err
	}
	err = c.cache.Set(ctx, full.String(), body)
	if err != nil {
		c.tel.ReportWarning(report_client_cache, err, full.String())
	}
	return body, nil
}
