package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/csvx"
	"github.com/adeilh/go-insee/dashboard"
)

var (
	exportDir  string
	exportList bool
)

var exportCmd = &cobra.Command{
	Use:   "export [dataset]",
	Short: "Write a dataset as a dated CSV file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if exportList || len(args) == 0 {
			fmt.Fprintln(out, strings.Join(dashboard.Datasets(), "\n"))
			return nil
		}

		src, _, closer, err := openSource(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		path, err := exportDataset(cmd.Context(), newDashboard(src, cfg), args[0], exportDir, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "output", "o", ".", "directory receiving the CSV file")
	exportCmd.Flags().BoolVar(&exportList, "list", false, "list exportable datasets")
}

func exportDataset(ctx context.Context, svc *dashboard.Service, dataset, dir string, now time.Time) (string, error) {
	records, err := svc.Export(ctx, dataset)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(dir, csvx.Filename(dataset, now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := csvx.WriteRecords(f, records); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	return path, f.Close()
}
