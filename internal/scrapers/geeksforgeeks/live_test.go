package geeksforgeeks

import (
	"context"
	devenv "cqscraper/dev/env"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/crawl"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLive(t *testing.T) {
	cfg, err := devenv.GetStateConfig[devenv.LiveTestConfig]("sites.json5")
	if err != nil || cfg.GeeksforGeeks.Username == "" {
		t.Skip("skipping test because no valid test config was found at dev/.state/sites.json5")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	tel := telemetry.NewSlogAPI(nil)
	b, err := browser.NewChrome(browser.Options{Headless: false}, tel)
	require.Nil(t, err)
	defer b.Close()

	s, err := New(Options{
		Username: cfg.GeeksforGeeks.Username,
		Password: cfg.GeeksforGeeks.Password,
	}, b, tel)
	require.Nil(t, err)

	items, err := s.Catalog(ctx, 1)
	require.Nil(t, err)
	require.NotEmpty(t, items)

	item := items[0]
	for _, candidate := range items {
		if candidate.Slug == cfg.GeeksforGeeks.Slug {
			item = candidate
		}
	}
	if cfg.GeeksforGeeks.Slug != "" && item.Slug != cfg.GeeksforGeeks.Slug {
		item = crawl.Item{Name: cfg.GeeksforGeeks.Slug, Slug: cfg.GeeksforGeeks.Slug}
	}

	record, err := s.Fetch(ctx, item)
	require.Nil(t, err)
	require.Equal(t, item.Slug, record["title_slug"])
	t.Log(record["user_solutions"])
}
