package commands

import (
	"cqscraper/internal/config"
	"cqscraper/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists the supported sites with their effective cursor and schedule.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Site", "Prefix", "Start", "End", "Step", "Cron"})
		for _, name := range config.Sites {
			site, err := cfg.Site(name)
			if err != nil {
				serviceutil.Fatal("invalid site", err)
			}
			cursor := site.Cursor()
			t.AppendRow(table.Row{name, site.Prefix, cursor.Start, cursor.End, cursor.Step, site.Cron})
		}
		t.Render()
	},
}
