package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pipecdn/agent/internal/api"
	"github.com/pipecdn/agent/internal/config"
	"github.com/pipecdn/agent/internal/credentials"
	"github.com/pipecdn/agent/internal/heartbeat"
	"github.com/pipecdn/agent/internal/httpapi"
	"github.com/pipecdn/agent/internal/logging"
	"github.com/pipecdn/agent/internal/netinfo"
	"github.com/pipecdn/agent/internal/probe"
	"github.com/pipecdn/agent/internal/report"
	"github.com/pipecdn/agent/internal/scheduler"
	"github.com/pipecdn/agent/internal/store"
	"github.com/pipecdn/agent/internal/store/memory"
	"github.com/pipecdn/agent/internal/store/sqlite"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "agent",
		Short:         "Node agent: heartbeats and peer reachability tests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to agent.toml (optional)")
	root.AddCommand(runCmd(&cfgPath), preflightCmd(&cfgPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(cfg.LogDir)
			if err != nil {
				return err
			}
			defer logger.Sync()

			cred, err := credentials.Load(cfg.CredFile)
			if err != nil {
				// the one fatal startup error: without a token the loop never starts
				logger.Error("credentials_unavailable",
					zap.String("cred_file", cfg.CredFile),
					zap.Error(err),
				)
				return err
			}
			logger.Info("agent_starting",
				zap.String("email", cred.Email),
				zap.String("base_url", cfg.BaseURL),
			)

			var history store.ResultStore
			if cfg.DatabasePath != "" {
				db, err := sqlite.Open(cfg.DatabasePath)
				if err != nil {
					return err
				}
				defer db.Close()
				history = db
			} else {
				history = memory.New()
			}

			client := api.NewClient(cfg.BaseURL, cred.Token, cfg.HTTPTimeout)
			sender := heartbeat.NewSender(
				logger,
				client,
				netinfo.NewResolver(cfg.IPEchoURL, cfg.HTTPTimeout),
				cfg.MaxRetries,
				cfg.RetryDelay,
			)
			prober := probe.NewProber(logger, probe.NewHTTPChecker(cfg.HTTPTimeout))
			reporter := report.NewReporter(logger, client)

			loop := scheduler.New(logger, sender, client, prober, reporter, history, scheduler.Config{
				HeartbeatInterval: cfg.HeartbeatInterval,
				TestInterval:      cfg.TestInterval,
				RetryDelay:        cfg.RetryDelay,
				TickInterval:      cfg.TickInterval,
			})

			statusSrv := &http.Server{
				Addr:    cfg.Addr,
				Handler: httpapi.NewServer(logger, history, loop.Status).Router(),
			}
			go func() {
				logger.Info("status_api_listen", zap.String("addr", cfg.Addr))
				if err := statusSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Warn("status_api_error", zap.Error(err))
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loop.Run(ctx)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = statusSrv.Shutdown(shutdownCtx)

			logger.Info("agent_stopped")
			return nil
		},
	}
}

func preflightCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Check the environment before running the agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
			ok := func(msg string) { fmt.Println("✔", msg) }

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}

			if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
				return fmt.Errorf("BASE_URL %q is not an http(s) URL", cfg.BaseURL)
			}
			ok("BASE_URL=" + cfg.BaseURL)

			cred, err := credentials.Load(cfg.CredFile)
			if err != nil {
				return fmt.Errorf("credentials: %w (checked %s and NODE_TOKEN)", err, cfg.CredFile)
			}
			if cred.Email == "" {
				warn("no email in credentials; the control plane may want one at registration")
			}
			ok("token present")

			if cfg.DatabasePath == "" {
				warn("DATABASE_PATH empty — probe history kept in memory only")
			} else {
				ok("DATABASE_PATH=" + cfg.DatabasePath)
			}

			if cfg.Addr == "" {
				warn("ADDR is empty; the status API will be disabled by bind failure")
			} else {
				ok("ADDR=" + cfg.Addr)
			}

			ok("preflight passed")
			return nil
		},
	}
}
