package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/shoot/internal/server"
)

const shutdownTimeout = 25 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{Use: "serve", Short: "Start HTTP service", RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(opts)
		if err != nil {
			return err
		}
		defer e.Close()

		if cmd.Flags().Changed("host") {
			e.cfg.Server.Host = host
		}
		if cmd.Flags().Changed("port") {
			e.cfg.Server.Port = port
		}

		srv, err := server.New(e.cfg, e.store, server.Options{
			LLM:     e.completer(),
			Metrics: e.metrics,
			Logger:  e.logger,
		})
		if err != nil {
			return err
		}
		httpSrv := &http.Server{
			Addr:              net.JoinHostPort(e.cfg.Server.Host, strconv.Itoa(e.cfg.Server.Port)),
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			e.logger.Info("server listening", "addr", httpSrv.Addr, "llm_configured", e.cfg.LLM.Configured())
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			e.logger.Info("shutting down", "timeout", shutdownTimeout)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		})
		return g.Wait()
	}}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3000, "server port")
	return cmd
}
