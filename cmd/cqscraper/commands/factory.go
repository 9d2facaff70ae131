package commands

import (
	"context"
	"cqscraper/internal/components/browser"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/components/httpclient"
	"cqscraper/internal/components/store"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/config"
	"cqscraper/internal/crawl"
	"cqscraper/internal/scrapers/codechef"
	"cqscraper/internal/scrapers/geeksforgeeks"
	"cqscraper/internal/scrapers/interviewbit"
	"cqscraper/internal/scrapers/leetcode"
	"cqscraper/internal/scrapers/techiedelight"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// env is everything a command needs that outlives a single crawl.
type env struct {
	cfg     config.Config
	clock   chrono.StandardImpl
	tel     telemetry.API
	store   store.API
	otel    telemetry.Otel
	closers []io.Closer
}

func setup(ctx context.Context, cfg config.Config) (*env, error) {
	logFile, err := telemetry.InitSlog(telemetry.LogOptions{
		Verbose:    cfg.Log.Verbose,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	e := &env{cfg: cfg, closers: []io.Closer{logFile}}

	runId := telemetry.NewRunId()
	e.tel = telemetry.NewSlogAPI(slog.Default().With("run", runId))
	e.tel.ReportDebug("run started", runId)

	e.otel, err = telemetry.SetupOtel(ctx, "cqscraper", cfg.Otlp)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("setup otel: %w", err)
	}

	e.clock, err = chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("timezone: %w", err)
	}

	e.store, err = e.openStore(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *env) openStore(ctx context.Context) (store.API, error) {
	switch e.cfg.Storage.Backend {
	case config.BackendS3:
		s3, err := store.NewS3(e.cfg.Storage.S3, e.tel)
		if err != nil {
			return nil, err
		}
		err = s3.EnsureBucket(ctx)
		if err != nil {
			return nil, err
		}
		return s3, nil
	case config.BackendSQL:
		db, err := e.cfg.Storage.SQL.OpenDB()
		if err != nil {
			return nil, fmt.Errorf("open sql store: %w", err)
		}
		e.closers = append(e.closers, db)
		return store.NewSQL(ctx, db, e.tel)
	}
	return nil, fmt.Errorf("unknown storage backend %q", e.cfg.Storage.Backend)
}

// newSite builds the scraper of a site. The returned closer releases the browser and page
// cache the scraper was given.
func (e *env) newSite(name string, site config.SiteConfig) (crawl.Site, io.Closer, error) {
	var closers closerList

	openCache := func() (*httpclient.Cache, error) {
		cache, err := httpclient.OpenCache(e.cfg.Cache.Dir, e.cfg.Cache.Lifetime(), e.clock)
		if err != nil {
			return nil, fmt.Errorf("open page cache: %w", err)
		}
		closers = append(closers, cache)
		return cache, nil
	}
	openBrowser := func() (browser.API, error) {
		b, err := browser.NewChrome(e.cfg.Browser, e.tel)
		if err != nil {
			return nil, err
		}
		closers = append(closers, b)
		return b, nil
	}

	var (
		scraper crawl.Site
		err     error
	)
	switch name {
	case leetcode.Name:
		var cache *httpclient.Cache
		cache, err = openCache()
		if err != nil {
			break
		}
		scraper, err = leetcode.New(leetcode.Options{
			RatePerSecond: site.RatePerSecond,
			Cache:         cache,
		}, e.tel)
	case geeksforgeeks.Name:
		var b browser.API
		b, err = openBrowser()
		if err != nil {
			break
		}
		scraper, err = geeksforgeeks.New(geeksforgeeks.Options{
			Username:      site.Username,
			Password:      site.Password,
			RatePerSecond: site.RatePerSecond,
			MaxRefreshes:  e.cfg.Crawl.MaxRefreshes,
		}, b, e.tel)
	case codechef.Name:
		var b browser.API
		b, err = openBrowser()
		if err != nil {
			break
		}
		scraper, err = codechef.New(codechef.Options{
			Username:      site.Username,
			Password:      site.Password,
			RatePerSecond: site.RatePerSecond,
			MaxRefreshes:  e.cfg.Crawl.MaxRefreshes,
		}, b, e.tel)
	case interviewbit.Name:
		var b browser.API
		b, err = openBrowser()
		if err != nil {
			break
		}
		scraper, err = interviewbit.New(interviewbit.Options{
			Username:      site.Username,
			Password:      site.Password,
			RatePerSecond: site.RatePerSecond,
			MaxRefreshes:  e.cfg.Crawl.MaxRefreshes,
		}, b, e.tel)
	case techiedelight.Name:
		var cache *httpclient.Cache
		cache, err = openCache()
		if err != nil {
			break
		}
		var b browser.API
		b, err = openBrowser()
		if err != nil {
			break
		}
		scraper, err = techiedelight.New(techiedelight.Options{
			RatePerSecond: site.RatePerSecond,
			Cache:         cache,
		}, b, e.tel)
	default:
		err = fmt.Errorf("unknown site %q", name)
	}
	if err != nil {
		closers.Close()
		return nil, nil, err
	}
	return scraper, closers, nil
}

func (e *env) newDriver(site config.SiteConfig, scraper crawl.Site) (crawl.Driver, error) {
	policy, err := crawl.ParsePageFailurePolicy(e.cfg.Crawl.OnPageFailure)
	if err != nil {
		return crawl.Driver{}, err
	}
	return crawl.NewDriver(scraper, e.store, crawl.Options{
		Prefix:        site.Prefix,
		Cursor:        site.Cursor(),
		Attempts:      e.cfg.Crawl.Attempts,
		OnPageFailure: policy,
	}, e.tel), nil
}

func (e *env) Close() error {
	var errs []error
	if e.otel.TracerProvider != nil || e.otel.MeterProvider != nil {
		errs = append(errs, e.otel.Shutdown(context.Background()))
	}
	// the log file goes last so everything before it is still written
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i].Close())
	}
	return errors.Join(errs...)
}

type closerList []io.Closer

func (c closerList) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		errs = append(errs, c[i].Close())
	}
	return errors.Join(errs...)
}
