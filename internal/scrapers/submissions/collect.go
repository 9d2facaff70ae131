// Package submissions collects accepted user submissions from a paginated history.
package submissions

import (
	"context"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"reflect"
	"slices"
)

const (
	DefaultLimit    = 5
	DefaultMaxPages = 25
)

const report_collector_code = "collector.code"

type Submission struct {
	Id       string
	Language string
	Verdict  string
}

// Solution is the code of an accepted submission. An empty Language keeps the language
// of the submission.
type Solution struct {
	Language string
	Code     any
}

// Page is one page of a submission history. Next is the cursor of the following page, Last
// is set when there is none.
type Page[C any] struct {
	Items []Submission
	Next  C
	Last  bool
}

type Collector[C any] struct {
	// List returns the page of the history at cursor.
	List func(ctx context.Context, cursor C) (Page[C], error)
	// Code fetches the code of an accepted submission, nil keeps the submission itself.
	Code func(ctx context.Context, sub Submission) (Solution, error)
	// Accepted is the verdict of the submissions worth keeping.
	Accepted string
	Limit    int
	MaxPages int
	// Dedupe drops code already collected for the same language.
	Dedupe bool
	Tel    telemetry.API
}

// Collect walks the history from start until Limit accepted submissions were found, the
// history ends, a page repeats the previous one or MaxPages pages were read. It returns the
// code of the accepted submissions grouped by language.
func (c Collector[C]) Collect(ctx context.Context, start C) (map[string][]any, error) {
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	maxPages := c.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	var accepted []Submission
	var previous []Submission
	cursor := start
	for pages := 0; pages < maxPages && len(accepted) < limit; pages++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.List(ctx, cursor)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 || (previous != nil && slices.Equal(previous, page.Items)) {
			break
		}
		previous = page.Items

		for _, sub := range page.Items {
			if sub.Verdict != c.Accepted {
				continue
			}
			accepted = append(accepted, sub)
			if len(accepted) >= limit {
				break
			}
		}
		if page.Last {
			break
		}
		cursor = page.Next
	}

	return c.group(ctx, accepted)
}

func (c Collector[C]) group(ctx context.Context, accepted []Submission) (map[string][]any, error) {
	out := map[string][]any{}
	for _, sub := range accepted {
		language := sub.Language
		var code any = sub
		if c.Code != nil {
			solution, err := c.Code(ctx, sub)
			if err != nil {
				if crawl.KindOf(err) == crawl.KindFatal || ctx.Err() != nil {
					return nil, err
				}
				if c.Tel != nil {
					c.Tel.ReportWarning(report_collector_code, err, sub.Id)
				}
				continue
			}
			code = solution.Code
			if solution.Language != "" {
				language = solution.Language
			}
		}

		if c.Dedupe && slices.ContainsFunc(out[language], func(existing any) bool {
			return reflect.DeepEqual(existing, code)
		}) {
			continue
		}
		out[language] = append(out[language], code)
	}
	return out, nil
}
