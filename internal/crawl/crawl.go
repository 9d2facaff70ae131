// Package crawl walks a site's paginated catalog and stores a record per problem, skipping
// problems whose record already exists.
package crawl

import (
	"context"

	"github.com/tidwall/gjson"
)

// Cursor is the inclusive range of page offsets a crawl visits.
type Cursor struct {
	Start int `json:"start"`
	End   int `json:"end"`
	Step  int `json:"step"`
}

// Offsets returns Start, Start+Step, ... up to and including End. A non-positive step is
// treated as 1.
func (c Cursor) Offsets() []int {
	step := c.Step
	if step <= 0 {
		step = 1
	}
	var out []int
	for offset := c.Start; offset <= c.End; offset += step {
		out = append(out, offset)
	}
	return out
}

// Item is one problem as listed by a site catalog.
type Item struct {
	// Name is the stem of the destination key.
	Name       string
	Slug       string
	Title      string
	Difficulty string
	// Raw is the catalog entry the item was built from.
	Raw gjson.Result
	// Ignore, when set, is the reason a listed item is not crawled. Ignored items still count
	// toward the page so a page of them does not end the crawl.
	Ignore string
}

// Record is the assembled JSON document of a problem, it always contains title_slug.
type Record map[string]any

// Site is implemented by every scraper.
type Site interface {
	Name() string
	// Catalog returns the items listed at the offset, an empty list means the catalog is exhausted.
	Catalog(ctx context.Context, offset int) ([]Item, error)
	// Fetch assembles the record of an item. Sub-fetch failures leave fields nil, only
	// failures that make the whole record meaningless are returned.
	Fetch(ctx context.Context, item Item) (Record, error)
}
