package commands

import (
	"context"
	"cqscraper/internal/components/store"
	"cqscraper/internal/config"
	"cqscraper/pkg/serviceutil"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var listNames bool

func init() {
	statusCmd.Flags().BoolVar(&listNames, "names", false, "also list the record names of each site")
	rootCmd.AddCommand(statusCmd)
}

// recordNames lists the names of the records stored under prefix, in key order.
func recordNames(ctx context.Context, s store.API, prefix string) ([]string, error) {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = store.Name(prefix, key)
	}
	return names, nil
}

var statusCmd = &cobra.Command{
	Use:   "status [site...]",
	Short: "Shows how many records each site has in the record store.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if len(args) == 0 {
			args = config.Sites
		}

		e, err := setup(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to set up", err)
		}
		defer e.Close()

		t := newTable()
		header := table.Row{"Site", "Prefix", "Records"}
		if listNames {
			header = append(header, "Names")
		}
		t.AppendHeader(header)
		for _, name := range args {
			site, err := cfg.Site(name)
			if err != nil {
				serviceutil.Fatal("invalid site", err)
			}
			names, err := recordNames(cmd.Context(), e.store, site.Prefix)
			if err != nil {
				serviceutil.Fatal("failed to list records", err)
			}
			row := table.Row{name, site.Prefix, len(names)}
			if listNames {
				row = append(row, strings.Join(names, "\n"))
			}
			t.AppendRow(row)
		}
		t.Render()
	},
}
