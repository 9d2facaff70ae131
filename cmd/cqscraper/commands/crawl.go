package commands

import (
	"context"
	"cqscraper/internal/components/chrono"
	"cqscraper/internal/components/telemetry"
	"cqscraper/internal/config"
	"cqscraper/internal/crawl"
	"cqscraper/pkg/serviceutil"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var crawlStart *int
var crawlEnd *int
var crawlStep *int
var crawlOnPageFailure *string
var crawlCron *string

func init() {
	crawlStart = crawlCmd.Flags().Int("start", -1, "The first catalog offset, overrides the configured one.")
	crawlEnd = crawlCmd.Flags().Int("end", -1, "The last catalog offset (inclusive), overrides the configured one.")
	crawlStep = crawlCmd.Flags().Int("step", 0, "The distance between two offsets, overrides the configured one.")
	crawlOnPageFailure = crawlCmd.Flags().String("on-page-failure", "", "What to do with a page that failed every attempt: skip or abort.")
	crawlCron = crawlCmd.Flags().String("cron", "", "Keep running and crawl on this schedule, \"config\" uses each site's configured schedule.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <site...> [--start n] [--end n] [--step n] [--on-page-failure skip|abort] [--cron spec]",
	Short: "Crawls the catalog of one or more sites into the record store, skipping records that already exist.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *crawlOnPageFailure != "" {
			cfg.Crawl.OnPageFailure = *crawlOnPageFailure
		}

		sites := make([]config.SiteConfig, len(args))
		for i, name := range args {
			site, err := cfg.Site(name)
			if err != nil {
				serviceutil.Fatal("invalid site", err)
			}
			sites[i] = overrideCursor(site)
		}

		ctx, cancel := serviceutil.SignalContext(cmd.Context())
		defer cancel()

		e, err := setup(ctx, cfg)
		if err != nil {
			serviceutil.Fatal("failed to set up", err)
		}
		defer e.Close()

		if *crawlCron == "" {
			for i, name := range args {
				summary, err := e.crawl(ctx, name, sites[i])
				printSummary(name, summary)
				if err != nil {
					e.Close()
					serviceutil.Fatal("crawl failed", err)
				}
			}
			return
		}

		telemetry.InstrumentPerfStats(ctx, time.Minute, e.tel)
		cron := chrono.NewStandardCron(e.clock, e.tel)
		for i, name := range args {
			spec := *crawlCron
			if spec == "config" {
				spec = sites[i].Cron
			}
			if spec == "" {
				e.Close()
				serviceutil.Fatal("missing schedule", fmt.Errorf("%s has no cron configured", name))
			}

			site := sites[i]
			err := cron.Cron(spec, func() {
				summary, err := e.crawl(ctx, name, site)
				if err != nil && !errors.Is(err, context.Canceled) {
					e.tel.ReportBroken("crawl", err, name)
				}
				slog.Info("scheduled crawl finished", "site", name, "stored", summary.Stored, "failed", summary.Failed)
			})
			if err != nil {
				e.Close()
				serviceutil.Fatal("invalid cron schedule", err)
			}
			slog.Info("crawl scheduled", "site", name, "cron", spec)
		}

		<-ctx.Done()
		slog.Info("stopping, waiting for running crawls")
		cron.Stop()
	},
}

func overrideCursor(site config.SiteConfig) config.SiteConfig {
	if *crawlStart >= 0 {
		site.Start = crawlStart
	}
	if *crawlEnd >= 0 {
		site.End = crawlEnd
	}
	if *crawlStep > 0 {
		site.Step = *crawlStep
	}
	return site
}

func (e *env) crawl(ctx context.Context, name string, site config.SiteConfig) (crawl.Summary, error) {
	scraper, closer, err := e.newSite(name, site)
	if err != nil {
		return crawl.Summary{}, fmt.Errorf("%s: %w", name, err)
	}
	defer closer.Close()

	driver, err := e.newDriver(site, scraper)
	if err != nil {
		return crawl.Summary{}, err
	}

	t1 := time.Now()
	summary, err := driver.Run(ctx)
	slog.Info("crawl time", "site", name, "seconds", time.Since(t1).Seconds())
	if err != nil {
		return summary, fmt.Errorf("%s: %w", name, err)
	}
	return summary, nil
}

func printSummary(name string, summary crawl.Summary) {
	t := newTable()
	t.SetTitle(name)
	t.AppendHeader(table.Row{"Pages", "Stored", "Skipped", "Ignored", "Failed", "Abandoned pages"})
	t.AppendRow(table.Row{
		summary.Pages,
		summary.Stored,
		summary.Skipped,
		summary.Ignored,
		summary.Failed,
		summary.AbandonedPages,
	})
	t.Render()
}
