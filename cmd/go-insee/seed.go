package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/db/sql/postgres"
	"github.com/adeilh/go-insee/insee"
)

var seedCommunes []string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the embedded series into PostgreSQL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Postgres.DSN == "" {
			return postgres.ErrMissingDSN
		}
		ctx := cmd.Context()
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		repo := postgres.NewSeriesRepository(db)
		if err := repo.Seed(ctx, insee.StaticSource{}, seedCommunes...); err != nil {
			return err
		}
		names, err := repo.SeriesNames(ctx)
		if err != nil {
			return err
		}
		slog.Info("series seeded", slog.Int("count", len(names)))
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringSliceVar(&seedCommunes, "commune", []string{insee.NantesCode}, "INSEE commune codes to seed")
}
