// Package cli wires the askfin command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/gateway"
	"github.com/sadopc/askfin/internal/logging"
	"github.com/sadopc/askfin/internal/session"
	"github.com/sadopc/askfin/internal/tui"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	apiURL     string
	logLevel   string
	currency   string
	query      string
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "askfin",
		Short: "Ask questions about your financial data",
		Long: `askfin sends plain-language questions to an answering service and shows
the rows and SQL it returns. Without a subcommand it starts the interactive
terminal UI.`,
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default ~/.config/askfin/config.yaml)")
	pf.StringVar(&opts.apiURL, "api-url", "", "answering service base URL")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.currency, "currency", "", "currency symbol for money columns")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "question to ask as soon as the UI starts")

	cmd.AddCommand(
		newAskCmd(opts),
		newReportsCmd(opts),
		newDashboardCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(o.configPath, cmd.Flags())
}

// clientLogger logs to the configured file. Client commands keep stdout for
// their own output, and the UI owns the whole terminal.
func clientLogger(cfg *config.Config) (zerolog.Logger, io.Closer, error) {
	opts := logging.Options{Level: cfg.LogLevel, File: cfg.LogFile}
	if opts.File == "" {
		opts.Out = io.Discard
	}
	return logging.New(opts)
}

func newGateway(cfg *config.Config, logger zerolog.Logger) *gateway.Client {
	return gateway.New(cfg.APIURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithLogger(logger),
	)
}

func runInteractive(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := clientLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Without a terminal the deep link is answered once and printed.
	if opts.query != "" && !isTerminal(cmd.OutOrStdout()) {
		return submitAndPrint(cmd, cfg, logger, outputAuto, func(ctx context.Context, sess *session.Controller) (session.State, error) {
			st, _, err := sess.SubmitDeepLink(ctx, opts.query)
			return st, err
		})
	}

	logger.Info().Str("api_url", cfg.APIURL).Str("config", cfg.Path).Msg("starting ui")

	app := tui.NewApp(cfg, newGateway(cfg, logger), logger, opts.query)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
