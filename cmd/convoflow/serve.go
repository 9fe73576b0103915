package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	convoflow "github.com/zapcampo/convoflow"
	"github.com/zapcampo/convoflow/internal/cli"
	"github.com/zapcampo/convoflow/internal/logging"
	"github.com/zapcampo/convoflow/internal/metrics"
	httpAdapter "github.com/zapcampo/convoflow/pkg/adapters/http"
	"github.com/zapcampo/convoflow/pkg/adapters/memory"
	redisAdapter "github.com/zapcampo/convoflow/pkg/adapters/redis"
	"github.com/zapcampo/convoflow/pkg/ports"
	"github.com/zapcampo/convoflow/pkg/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve <flow-file>",
	Short: "Serve a flow over HTTP",
	Long:  `Starts an HTTP server exposing conversation management and flow validation endpoints for the given flow.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		debug, _ := cmd.Flags().GetBool("debug")

		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)

		flow, err := cli.LoadFlow(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading flow: %v\n", err)
			os.Exit(1)
		}

		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		eng := convoflow.NewFromDefinition(flow,
			convoflow.WithLogger(logger),
			convoflow.WithHooks(m.Hooks()),
		)

		var store ports.StateStore
		var sessionOpts []session.Option
		sessionOpts = append(sessionOpts, session.WithLogger(logger))
		if redisAddr != "" {
			rstore := redisAdapter.New(redisAddr, "", 0, redisAdapter.WithTTL(ttl))
			defer rstore.Close()
			store = rstore
			logger.Info("using redis state store", "addr", redisAddr, "ttl", ttl)
		} else {
			store = memory.NewStore()
			logger.Info("using in-memory state store")
		}

		sessions := session.NewManager(eng, store, sessionOpts...)
		handler := httpAdapter.NewHandler(sessions,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsGatherer(reg),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("starting server", "addr", srv.Addr, "flow", args[0])
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			logger.Error("server error", "err", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("starting shutdown", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("error killing server", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for durable conversation state (host:port)")
	serveCmd.Flags().Duration("ttl", 0, "Conversation TTL when using redis (0 keeps forever)")
}
