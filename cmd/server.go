package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pagepilot/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the pagepilot HTTP and WebSocket API",
	Long:  `Starts the pagepilot server exposing the action, research and conversation endpoints plus the /api/live WebSocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appCfg
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:           cfg.Server.Port,
			AllowAll:       cfg.Server.AllowAllOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, a.db, a.ledger, a.resolver, a.sched, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("server shutdown", "error", err)
			}
		}()

		logger.Info("pagepilot server starting",
			"version", Version,
			"port", cfg.Server.Port,
			"provider", cfg.Provider,
			"model", cfg.Model,
			"database", a.db.Path())

		if err := srv.Start(); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serverCmd)
}
