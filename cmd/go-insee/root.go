package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/config"
	"github.com/adeilh/go-insee/logging"
)

var (
	configPath string
	cfg        *config.Config
	logCloser  io.Closer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "go-insee",
	Short: "Serve French demographic and inflation statistics",
	Long: `Serve INSEE inflation and population series, their derived indicators
and CSV exports over HTTP, backed by embedded data, a remote JSON source or PostgreSQL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logCloser, err = logging.Setup(logging.Options{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
		})
		return err
	},
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(serveCmd, exportCmd, parseCmd, seedCmd, datagouvCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
