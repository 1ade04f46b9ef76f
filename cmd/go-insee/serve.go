package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adeilh/go-insee/api"
	"github.com/adeilh/go-insee/config"
	"github.com/adeilh/go-insee/httpx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, c *config.Config) error {
	src, name, closer, err := openSource(ctx, c)
	if err != nil {
		return err
	}
	defer closer.Close()

	handler := api.New(newDashboard(src, c),
		api.WithSourceName(name),
		api.WithCommuneLookup(newGeo(c)),
		api.WithCatalogue(newDatagouv(c)),
	)
	srv := newServer(c, handler.Validators()...)
	srv.RegisterRoutes(handler.Register)

	err = srv.Start(ctx, httpx.WithShutdownTimeout(c.Server.ShutdownTimeout))
	if errors.Is(err, context.Canceled) {
		slog.Info("http server stopped")
		return nil
	}
	return err
}

func newServer(c *config.Config, validators ...httpx.Validator) *httpx.Server {
	opts := []httpx.ServerOption{
		httpx.WithAddress(c.Server.Address),
		httpx.WithTimeouts(c.Server.ReadTimeout, c.Server.WriteTimeout),
		httpx.AppendMiddlewares(httpx.GzipMiddleware()),
		httpx.WithValidators(validators...),
		httpx.WithRateLimit(c.Server.RateLimit),
		httpx.WithLogger(slog.Default()),
	}
	if len(c.Server.CORSOrigins) > 0 {
		cors := httpx.DefaultCORSConfig
		cors.AllowOrigins = c.Server.CORSOrigins
		opts = append(opts, httpx.WithCORS(&cors))
	} else {
		opts = append(opts, httpx.WithCORS(nil))
	}
	return httpx.NewServer(opts...)
}
