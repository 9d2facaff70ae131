package browser

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// maxTracked bounds the requests and responses kept in memory over a long crawl.
const maxTracked = 2000

const (
	report_chrome_capture = "chrome.capture"
	report_chrome_action  = "chrome.action"
)

type Options struct {
	Headless bool   `json:"headless"`
	ExecPath string `json:"exec_path"`
	// TimeoutSeconds bounds every single action, defaults to 30.
	TimeoutSeconds int    `json:"timeout_seconds"`
	UserAgent      string `json:"user_agent"`
}

type pendingRequest struct {
	url     string
	headers http.Header
}

// Chrome implements API with a chromedp controlled chromium.
type Chrome struct {
	ctx       context.Context
	cancel    context.CancelFunc
	timeout   time.Duration
	tel       telemetry.API
	mutex     sync.Mutex
	patterns  []string
	requests  map[network.RequestID]*pendingRequest
	order     []network.RequestID
	responses map[network.RequestID]*Response
	captured  []Response
	wg        sync.WaitGroup
}

func NewChrome(opts Options, tel telemetry.API) (*Chrome, error) {
	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	if opts.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(opts.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	timeout := time.Duration(opts.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Chrome{
		ctx: ctx,
		cancel: func() {
			cancelCtx()
			cancelAlloc()
		},
		timeout:   timeout,
		tel:       telemetry.NewScopedAPI("browser", tel),
		requests:  map[network.RequestID]*pendingRequest{},
		responses: map[network.RequestID]*Response{},
	}
	chromedp.ListenTarget(ctx, c.onEvent)

	err := chromedp.Run(ctx, network.Enable())
	if err != nil {
		c.cancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return c, nil
}

func (c *Chrome) matches(url string) bool {
	for _, p := range c.patterns {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

func (c *Chrome) request(id network.RequestID) *pendingRequest {
	req, ok := c.requests[id]
	if !ok {
		req = &pendingRequest{headers: http.Header{}}
		c.requests[id] = req
		c.order = append(c.order, id)
		if len(c.order) > maxTracked {
			delete(c.requests, c.order[0])
			c.order = c.order[1:]
		}
	}
	return req
}

func addHeaders(out http.Header, headers network.Headers) {
	for k, v := range headers {
		out.Set(k, fmt.Sprint(v))
	}
}

func (c *Chrome) onEvent(ev any) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		req := c.request(ev.RequestID)
		req.url = ev.Request.URL
		addHeaders(req.headers, ev.Request.Headers)
	case *network.EventRequestWillBeSentExtraInfo:
		// carries the cookie header the renderer does not see
		addHeaders(c.request(ev.RequestID).headers, ev.Headers)
	case *network.EventResponseReceived:
		if !c.matches(ev.Response.URL) {
			return
		}
		c.responses[ev.RequestID] = &Response{
			Url:    ev.Response.URL,
			Status: int(ev.Response.Status),
		}
	case *network.EventLoadingFinished:
		res, ok := c.responses[ev.RequestID]
		if !ok {
			return
		}
		delete(c.responses, ev.RequestID)

		// the body must be requested outside of the event handler
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.fetchBody(ev.RequestID, res)
		}()
	}
}

func (c *Chrome) fetchBody(id network.RequestID, res *Response) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()

	target := chromedp.FromContext(c.ctx).Target
	body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(ctx, target))
	if err != nil {
		c.tel.ReportWarning(report_chrome_capture, err, res.Url)
		return
	}
	res.Body = body

	c.mutex.Lock()
	c.captured = append(c.captured, *res)
	if len(c.captured) > maxTracked {
		c.captured = c.captured[1:]
	}
	c.mutex.Unlock()
}

// run executes actions in the browser context, bounded by the action timeout and by ctx.
func (c *Chrome) run(ctx context.Context, name string, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, c.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.tel.ReportWarning(report_chrome_action, err, name)
		return fmt.Errorf("browser %s: %w", name, err)
	}
	return nil
}

func queryOptions(loc Locator) (string, []chromedp.QueryOption) {
	selector, xpath := loc.query()
	if xpath {
		return selector, []chromedp.QueryOption{chromedp.BySearch}
	}
	return selector, []chromedp.QueryOption{chromedp.ByQuery}
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.tel.ReportDebug("navigate", url)
	return c.run(
		ctx, "navigate "+url,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (c *Chrome) Fill(ctx context.Context, loc Locator, value string) error {
	selector, opts := queryOptions(loc)
	return c.run(
		ctx, "fill "+loc.String(),
		chromedp.WaitVisible(selector, opts...),
		chromedp.Clear(selector, opts...),
		chromedp.SendKeys(selector, value, opts...),
	)
}

func (c *Chrome) Click(ctx context.Context, loc Locator) error {
	selector, opts := queryOptions(loc)
	opts = append(opts, chromedp.NodeVisible)
	return c.run(ctx, "click "+loc.String(), chromedp.Click(selector, opts...))
}

func (c *Chrome) Exists(ctx context.Context, loc Locator) (bool, error) {
	selector, opts := queryOptions(loc)
	var nodes []*cdp.Node
	opts = append(opts, chromedp.AtLeast(0))
	err := c.run(ctx, "exists "+loc.String(), chromedp.Nodes(selector, &nodes, opts...))
	if err != nil {
		return false, err
	}
	return len(nodes) > 0, nil
}

func (c *Chrome) Content(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, "content", chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := c.run(ctx, "cookies", chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	out := make([]*http.Cookie, len(cookies))
	for i, cookie := range cookies {
		out[i] = &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Domain:   cookie.Domain,
			Path:     cookie.Path,
			Secure:   cookie.Secure,
			HttpOnly: cookie.HTTPOnly,
		}
	}
	return out, nil
}

func (c *Chrome) Requests(substr string) []Request {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var out []Request
	for _, id := range c.order {
		req := c.requests[id]
		if req.url == "" || !strings.Contains(req.url, substr) {
			continue
		}
		out = append(out, Request{Url: req.url, Headers: req.headers.Clone()})
	}
	return out
}

func (c *Chrome) Responses(substr string) []Response {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var out []Response
	for _, res := range c.captured {
		if strings.Contains(res.Url, substr) {
			out = append(out, res)
		}
	}
	return out
}

func (c *Chrome) Capture(substrs ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.patterns = append(c.patterns, substrs...)
}

func (c *Chrome) Close() error {
	c.wg.Wait()
	c.cancel()
	return nil
}
