package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chowkart/chowkart/internal/archive"
	"github.com/chowkart/chowkart/internal/models"
)

// archiveCmd exports delivered orders as a parquet object, locally or
// to S3 when an archive bucket is configured.
var archiveCmd = &cobra.Command{
	Use:   "archive-orders",
	Short: "Export delivered orders as a parquet archive",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := models.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		st, cleanup, err := buildStores(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer cleanup()

		archiver, err := archive.NewArchiver(st.orders, cfg, logrus.New())
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		var from, to time.Time
		object, err := archiver.ExportDelivered(context.Background(), from, to)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("archive written: %s\n", object)
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
