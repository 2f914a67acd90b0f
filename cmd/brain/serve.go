package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thenoname-gurl/Brain/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			logger := newLogger(p)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := openBrain(ctx, p, logger)
			if err != nil {
				return err
			}
			s := server.NewServer(p, b, logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return s.Start(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				s.Shutdown(context.Background())
				return nil
			})
			if err := g.Wait(); err != nil {
				slog.Error("server stopped with error", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
}
