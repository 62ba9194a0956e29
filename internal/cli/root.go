/*
Package cli implements the monetchat command tree.

Every command that talks to the chat API builds the same runtime: configuration,
the logger, the persistent session store, the API client and the session
controller with a terminal view. The local API server is started by `serve`.
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"monetchat/internal/app/apiclient"
	"monetchat/internal/app/session"
	"monetchat/internal/app/storage"
	"monetchat/internal/configs"
	"monetchat/internal/pkg/logx"
)

var (
	version = "dev"
	commit  = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	apiURL     string
	storePath  string
	configPath string
	verbose    bool
}

// reportedError marks an error the view has already shown to the operator.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// NewRootCommand builds the command tree reading operator input from in.
func NewRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "monetchat",
		Short: "Terminal client for the Monet chat room",
		Long: `A terminal client for the Monet polling chat room.

The session is kept on disk between runs, so log in once and then use the
other commands. The interactive chat command polls for new messages.

Quick Start:
  monetchat register -u alice -p secret -n Alice -a https://example.com/a.png
  monetchat login -u alice -p secret
  monetchat chat`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.apiURL, "api-url", "", "Chat API base address (overrides API_BASE_URL)")
	pf.StringVar(&flags.storePath, "store", "", "Session store directory (overrides STORE_PATH)")
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (overrides "+configs.ConfigFileEnv+")")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCommand(flags),
		newRegisterCommand(flags),
		newLogoutCommand(flags),
		newWhoamiCommand(flags),
		newMessagesCommand(flags),
		newSendCommand(flags),
		newChatCommand(flags),
		newAdminCommand(flags),
		newServeCommand(flags),
	)

	return root
}

// Execute runs the command tree against the process streams and exits 1 on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", session.Describe(err))
		}
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves configuration and applies flag overrides.
func loadConfig(flags *globalFlags) (*configs.AppConfig, error) {
	cfg, err := configs.LoadConfig(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.apiURL != "" {
		cfg.APIBaseURL = flags.apiURL
	}
	if flags.storePath != "" {
		cfg.StorePath = flags.storePath
	}
	if flags.verbose {
		cfg.Environment = "development"
	}

	return cfg, nil
}

// clientEnv is everything a client command needs.
type clientEnv struct {
	cfg   *configs.AppConfig
	api   *apiclient.Client
	store storage.StorageService
	view  *terminalView
	ctrl  *session.Controller
}

// openClientEnv builds the client environment for cmd.
func openClientEnv(cmd *cobra.Command, flags *globalFlags) (*clientEnv, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	logx.InitGlobalLoggerTo(cmd.ErrOrStderr(), cfg.IsDevelopment())
	logx.Debug("Configuration loaded", "api_base_url", cfg.APIBaseURL, "store_path", cfg.StorePath)

	store, err := storage.NewStorageService(storage.ServiceConfig{Path: cfg.StorePath})
	if err != nil {
		return nil, err
	}

	api := apiclient.New(cfg.APIBaseURL)
	view := newTerminalView(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctrl := session.NewController(api, store, view, session.Config{
		AdminUsername: cfg.AdminUsername,
		PollInterval:  cfg.PollInterval,
	})

	return &clientEnv{cfg: cfg, api: api, store: store, view: view, ctrl: ctrl}, nil
}

// Close stops polling and closes the store. The persisted session is kept.
func (rt *clientEnv) Close() {
	rt.ctrl.Close()
	if err := rt.store.Close(); err != nil {
		logx.Error(err, "Failed to close session store")
	}
}

// restore runs restore-on-start and fails when no session exists.
func (rt *clientEnv) restore(ctx context.Context) error {
	if err := rt.ctrl.Start(ctx); err != nil {
		return err
	}
	if rt.ctrl.State() != session.StateAuthenticated {
		return errors.New("尚未登录，请先运行 monetchat login")
	}
	return nil
}

// withClientEnv wraps a command body with client environment setup and teardown.
func withClientEnv(flags *globalFlags, fn func(ctx context.Context, rt *clientEnv, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openClientEnv(cmd, flags)
		if err != nil {
			return err
		}
		defer rt.Close()

		return fn(cmd.Context(), rt, args)
	}
}
