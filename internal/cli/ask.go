package cli

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/session"
	"github.com/spf13/cobra"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var csvOut, jsonOut bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask one question and print the answer",
		Long: `Ask sends QUESTION to the answering service. On a terminal the rows are
printed as a formatted table; otherwise they are written as CSV.`,
		Example: `  askfin ask "top 5 customers by spend"
  askfin ask --json "transactions over 500 last month" > out.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			logger, closer, err := clientLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			return askAndPrint(cmd, cfg, logger, strings.Join(args, " "), modeFor(csvOut, jsonOut))
		},
	}

	cmd.Flags().BoolVar(&csvOut, "csv", false, "write raw CSV even on a terminal")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "write a JSON document with the query, SQL and typed rows")
	cmd.MarkFlagsMutuallyExclusive("csv", "json")
	return cmd
}

// askAndPrint runs one session submission and prints its outcome.
func askAndPrint(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger, query string, mode outputMode) error {
	return submitAndPrint(cmd, cfg, logger, mode, func(ctx context.Context, sess *session.Controller) (session.State, error) {
		return sess.Submit(ctx, query)
	})
}

func submitAndPrint(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger, mode outputMode,
	submit func(context.Context, *session.Controller) (session.State, error),
) error {
	p := newPrinter(cmd.OutOrStdout(), cfg)
	sess := session.New(newGateway(cfg, logger), logger)

	pr := newProgress(p)
	unsubscribe := sess.Subscribe(pr.observe)
	defer unsubscribe()
	defer pr.done()

	st, err := submit(cmd.Context(), sess)
	if err != nil {
		return err
	}
	pr.done()
	if st.Phase != session.Success {
		return errors.New(st.ErrMessage)
	}
	return p.result(st.Result, st.Query, st.Elapsed, mode)
}

// progress shows a spinner while the session is loading.
type progress struct {
	mu     sync.Mutex
	start  func()
	stop   func()
	active bool
}

func newProgress(p *printer) *progress {
	pr := &progress{start: func() {}, stop: func() {}}
	if !p.tty {
		return pr
	}
	var spinner *pterm.SpinnerPrinter
	pr.start = func() {
		spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Thinking...")
	}
	pr.stop = func() {
		if spinner != nil {
			_ = spinner.Stop()
		}
	}
	return pr
}

func (pr *progress) observe(s session.State) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	switch {
	case s.Phase == session.Loading && !pr.active:
		pr.active = true
		pr.start()
	case s.Phase != session.Loading && pr.active:
		pr.active = false
		pr.stop()
	}
}

func (pr *progress) done() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.active {
		pr.active = false
		pr.stop()
	}
}
