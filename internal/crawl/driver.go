package crawl

import (
	"context"
	"cqscraper/internal/components/assert"
	"cqscraper/internal/components/store"
	"cqscraper/internal/components/telemetry"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_driver_page  = "driver.page"
	report_driver_item  = "driver.item"
	report_items_stored = "items-stored"
)

var tracer = otel.Tracer("cqscraper/crawl")
var meter = otel.Meter("cqscraper/crawl")
var storedCounter, _ = meter.Int64Counter("crawl.items_stored")
var skippedCounter, _ = meter.Int64Counter("crawl.items_skipped")
var failedCounter, _ = meter.Int64Counter("crawl.items_failed")

type PageFailurePolicy string

const (
	// PageFailureSkip logs a page that failed every attempt and moves on to the next cursor.
	PageFailureSkip PageFailurePolicy = "skip"
	// PageFailureAbort stops the crawl at the first page that failed every attempt.
	PageFailureAbort PageFailurePolicy = "abort"
)

func ParsePageFailurePolicy(s string) (PageFailurePolicy, error) {
	switch PageFailurePolicy(s) {
	case "", PageFailureSkip:
		return PageFailureSkip, nil
	case PageFailureAbort:
		return PageFailureAbort, nil
	}
	return "", fmt.Errorf("unknown page failure policy %q (expected skip or abort)", s)
}

type Options struct {
	// Prefix is the folder every record of the site is stored under.
	Prefix        string
	Cursor        Cursor
	Attempts      int
	OnPageFailure PageFailurePolicy
}

type Summary struct {
	Pages          int
	Stored         int
	Skipped        int
	Ignored        int
	Failed         int
	AbandonedPages int
}

// Driver runs one crawl of a site into a store. It is sequential: one page, one item and
// one sub-fetch at a time.
type Driver struct {
	site  Site
	store store.API
	opts  Options
	tel   telemetry.API
}

func NewDriver(site Site, s store.API, opts Options, tel telemetry.API) Driver {
	assert.NotNil(site)
	assert.NotNil(s)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.Prefix)

	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.OnPageFailure == "" {
		opts.OnPageFailure = PageFailureSkip
	}

	return Driver{
		site:  site,
		store: s,
		opts:  opts,
		tel:   telemetry.NewScopedAPI(fmt.Sprintf("crawl[%s]", site.Name()), tel),
	}
}

// Run visits every offset of the cursor. It stops early at the first empty page, when ctx
// is done, on a fatal error, or on a failed page under PageFailureAbort.
func (d Driver) Run(ctx context.Context) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("site", d.site.Name()),
		attribute.String("prefix", d.opts.Prefix),
	)

	var summary Summary
	filter := NewResumeFilter(d.store, d.opts.Prefix)

	for _, offset := range d.opts.Cursor.Offsets() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var items []Item
		outcome := Retry(ctx, d.opts.Attempts, func(ctx context.Context) error {
			var err error
			items, err = d.site.Catalog(ctx, offset)
			return err
		})
		if outcome.Err != nil {
			err := d.pageFailed(ctx, &summary, offset, "catalog", outcome)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return summary, err
			}
			continue
		}
		if len(items) == 0 {
			d.tel.ReportDebug("empty page, stopping", offset)
			break
		}
		summary.Pages++

		outcome = Retry(ctx, d.opts.Attempts, func(ctx context.Context) error {
			return d.processPage(ctx, filter, offset, items, &summary)
		})
		if outcome.Err != nil {
			err := d.pageFailed(ctx, &summary, offset, "items", outcome)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return summary, err
			}
		}
	}

	d.tel.ReportCount(report_items_stored, int64(summary.Stored))
	d.tel.ReportDebug(
		"crawl finished",
		"pages", summary.Pages,
		"stored", summary.Stored,
		"skipped", summary.Skipped,
		"ignored", summary.Ignored,
		"failed", summary.Failed,
		"abandoned_pages", summary.AbandonedPages,
	)
	return summary, nil
}

func (d Driver) pageFailed(ctx context.Context, summary *Summary, offset int, stage string, outcome Outcome) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	err := fmt.Errorf("page %d: %s: gave up after %d attempts: %w", offset, stage, outcome.Attempts, outcome.Err)
	d.tel.ReportBroken(report_driver_page, err)

	if KindOf(outcome.Err) == KindFatal || d.opts.OnPageFailure == PageFailureAbort {
		return err
	}
	summary.AbandonedPages++
	return nil
}

func (d Driver) processPage(ctx context.Context, filter *ResumeFilter, offset int, items []Item, summary *Summary) error {
	ctx, span := tracer.Start(ctx, "page")
	defer span.End()
	span.SetAttributes(attribute.Int("offset", offset), attribute.Int("items", len(items)))

	err := filter.Refresh(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Retryable(fmt.Errorf("list %s: %w", d.opts.Prefix, err))
	}
	d.tel.ReportDebug("page snapshot", offset, filter.Known())

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if item.Ignore != "" {
			d.tel.ReportDebug("ignored", item.Name, item.Ignore)
			summary.Ignored++
			continue
		}
		if item.Name == "" {
			d.tel.ReportWarning(report_driver_item, errors.New("catalog item without name"), offset, item.Title)
			summary.Failed++
			continue
		}
		if filter.IsDone(item) {
			summary.Skipped++
			skippedCounter.Add(ctx, 1)
			continue
		}

		err := d.processItem(ctx, filter, item)
		if err == nil {
			summary.Stored++
			storedCounter.Add(ctx, 1)
			continue
		}
		if KindOf(err) == KindFatal {
			return err
		}
		summary.Failed++
		failedCounter.Add(ctx, 1)
	}
	return nil
}

func (d Driver) processItem(ctx context.Context, filter *ResumeFilter, item Item) error {
	ctx, span := tracer.Start(ctx, "item")
	defer span.End()
	span.SetAttributes(attribute.String("name", item.Name))

	key := filter.Key(item)
	outcome := Retry(ctx, d.opts.Attempts, func(ctx context.Context) error {
		record, err := d.site.Fetch(ctx, item)
		if err != nil {
			return err
		}
		if record == nil {
			return Missing("record")
		}
		if _, ok := record["title_slug"]; !ok {
			record["title_slug"] = item.Slug
		}

		doc, err := store.MarshalRecord(record)
		if err != nil {
			return Missing(fmt.Sprintf("serializable record (%s)", err.Error()))
		}
		return d.store.Put(ctx, key, doc)
	})
	if outcome.Err != nil {
		span.SetStatus(codes.Error, outcome.Err.Error())
		d.tel.ReportBroken(report_driver_item, outcome.Err, key, outcome.Attempts)
		return outcome.Err
	}

	filter.MarkDone(item)
	d.tel.ReportDebug("stored", key, outcome.Attempts)
	return nil
}
