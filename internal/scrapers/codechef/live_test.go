package codechef

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
	if err != nil || cfg.CodeChef.Username == "" {
		t.Skip("skipping test because no valid test config was found at dev/.state/sites.json5")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	tel := telemetry.NewSlogAPI(nil)
	b, err := browser.NewChrome(browser.Options{Headless: false}, tel)
	require.Nil(t, err)
	defer b.Close()

	s, err := New(Options{
		Username: cfg.CodeChef.Username,
		Password: cfg.CodeChef.Password,
	}, b, tel)
	require.Nil(t, err)

	items, err := s.Catalog(ctx, 0)
	require.Nil(t, err)
	require.NotEmpty(t, items)

	item := items[0]
	for _, candidate := range items {
		if candidate.Slug == cfg.CodeChef.Slug {
			item = candidate
		}
	}
	if cfg.CodeChef.Slug != "" && item.Slug != cfg.CodeChef.Slug {
		item = crawl.Item{Name: cfg.CodeChef.Slug, Slug: cfg.CodeChef.Slug}
	}

	record, err := s.Fetch(ctx, item)
	require.Nil(t, err)
	require.Equal(t, item.Slug, record["title_slug"])
	t.Log(record["user_solutions"])
}
