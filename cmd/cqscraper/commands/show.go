package commands

import (
	"context"
	"cqscraper/internal/components/store"
	"cqscraper/pkg/serviceutil"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

// readRecord loads the stored record of a problem and re-indents it the way records are written.
func readRecord(ctx context.Context, s store.API, prefix, name string) ([]byte, error) {
	record, err := store.GetJSON[map[string]any](ctx, s, store.Key(prefix, name))
	if err != nil {
		return nil, err
	}
	return store.MarshalRecord(record)
}

var showCmd = &cobra.Command{
	Use:   "show <site> <name>",
	Short: "Prints the stored record of a problem.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		site, err := cfg.Site(args[0])
		if err != nil {
			serviceutil.Fatal("invalid site", err)
		}

		e, err := setup(cmd.Context(), cfg)
		if err != nil {
			serviceutil.Fatal("failed to set up", err)
		}
		defer e.Close()

		doc, err := readRecord(cmd.Context(), e.store, site.Prefix, args[1])
		if errors.Is(err, store.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "%s has not been crawled yet\n", store.Key(site.Prefix, args[1]))
			return
		}
		if err != nil {
			serviceutil.Fatal("failed to read record", err)
		}
		fmt.Println(string(doc))
	},
}
