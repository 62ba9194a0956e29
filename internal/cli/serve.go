package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"monetchat/internal/app/chat"
	"monetchat/internal/handler"
	"monetchat/internal/pkg/logx"
)

func newServeCommand(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local in-memory chat API",
		Long: `Run an in-memory implementation of the chat API on localhost.

Point the client at it with --api-url http://localhost:<port>/. State is lost
when the server stops.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if err := cfg.ValidateServer(); err != nil {
				return err
			}

			logx.InitGlobalLoggerTo(cmd.ErrOrStderr(), cfg.IsDevelopment())
			logx.Logger().Info().
				Str("environment", cfg.Environment).
				Int("port", cfg.Port).
				Strs("allowed_origins", cfg.AllowedOrigins).
				Str("admin_username", cfg.AdminUsername).
				Msg("Configuration loaded successfully")

			listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
			if err != nil {
				return fmt.Errorf("failed to listen on port %d: %w", cfg.Port, err)
			}

			return serve(cmd.Context(), listener, &handler.AppDeps{
				Manager: chat.NewManager(cfg),
				Config:  cfg,
			})
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listening port (overrides PORT)")
	return cmd
}

// serve runs the local API on listener until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, listener net.Listener, deps *handler.AppDeps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := &http.Server{
		Handler:      handler.Router(ctx, deps),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logx.Info(fmt.Sprintf("Local chat API starting on http://%s", listener.Addr()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		deps.Manager.Shutdown()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	deps.Manager.Shutdown()

	logx.Info("Server gracefully stopped.")
	return nil
}
