package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chowkart/chowkart/internal/models"
)

// backfillCmd re-credits every delivered order against partner stats.
// Crediting is keyed by order id, so orders already counted are skipped;
// this recovers counters lost to settlement failures at delivery time.
var backfillCmd = &cobra.Command{
	Use:   "backfill-stats",
	Short: "Recompute partner delivery counters from the order ledger",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		logger := logrus.New()
		service, cleanup, err := buildService(cfg, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer cleanup()

		bar := progressbar.Default(-1, "settling delivered orders")
		credited, err := service.ResettleDelivered(context.Background(), func() {
			bar.Add(1)
		})
		bar.Finish()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("backfill complete: %d orders newly credited\n", credited)
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
