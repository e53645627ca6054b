package cli

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/sadopc/askfin/internal/config"
	"github.com/sadopc/askfin/internal/reports"
	"github.com/spf13/cobra"
)

// reportsEnv is what every reports subcommand needs.
type reportsEnv struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *reports.Store
	close  func() error
}

func openReports(cmd *cobra.Command, root *rootOptions) (*reportsEnv, error) {
	cfg, err := root.load(cmd)
	if err != nil {
		return nil, err
	}
	logger, closer, err := clientLogger(cfg)
	if err != nil {
		return nil, err
	}
	return &reportsEnv{
		cfg:    cfg,
		logger: logger,
		store:  reports.NewStore(newGateway(cfg, logger), logger),
		close:  closer.Close,
	}, nil
}

func parseReportID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid report id %q", s)
	}
	return id, nil
}

func newReportsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reports",
		Aliases: []string{"report"},
		Short:   "Manage saved reports",
	}
	cmd.AddCommand(
		newReportsListCmd(root),
		newReportsSaveCmd(root),
		newReportsDeleteCmd(root),
		newReportsRunCmd(root),
	)
	return cmd
}

func newReportsListCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved reports in the order the service returns them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openReports(cmd, root)
			if err != nil {
				return err
			}
			defer env.close()

			list, err := env.store.Refresh(cmd.Context())
			if err != nil {
				return err
			}

			p := newPrinter(cmd.OutOrStdout(), env.cfg)
			if len(list) == 0 {
				p.println(pterm.Info.Sprint("No saved reports yet."))
				return nil
			}
			data := pterm.TableData{{"ID", "Name", "Question", "Created"}}
			for _, r := range list {
				created := ""
				if !r.CreatedAt.IsZero() {
					created = r.CreatedAt.Format("Jan 2, 2006 15:04")
				}
				data = append(data, []string{strconv.FormatInt(r.ID, 10), r.Name, r.Query, created})
			}
			return p.table(data)
		},
	}
}

func newReportsSaveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save NAME QUESTION",
		Short: "Save a question as a named report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openReports(cmd, root)
			if err != nil {
				return err
			}
			defer env.close()

			created, err := env.store.Create(cmd.Context(), args[0], args[1])
			if created == nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), env.cfg)
			p.println(pterm.Success.Sprintf("Saved report %d %q", created.ID, created.Name))
			// The report exists even when the list could not be re-fetched.
			return err
		},
	}
}

func newReportsDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			env, err := openReports(cmd, root)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout(), env.cfg)
			p.println(pterm.Success.Sprintf("Report %d deleted", id))
			return nil
		},
	}
}

func newReportsRunCmd(root *rootOptions) *cobra.Command {
	var csvOut, jsonOut bool

	cmd := &cobra.Command{
		Use:   "run ID",
		Short: "Ask a saved report's question again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseReportID(args[0])
			if err != nil {
				return err
			}
			env, err := openReports(cmd, root)
			if err != nil {
				return err
			}
			defer env.close()

			if _, err := env.store.Refresh(cmd.Context()); err != nil {
				return err
			}
			r, ok := env.store.Find(id)
			if !ok {
				return fmt.Errorf("report %d not found", id)
			}

			return askAndPrint(cmd, env.cfg, env.logger, r.Query, modeFor(csvOut, jsonOut))
		},
	}

	cmd.Flags().BoolVar(&csvOut, "csv", false, "write raw CSV even on a terminal")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "write a JSON document with the query, SQL and typed rows")
	cmd.MarkFlagsMutuallyExclusive("csv", "json")
	return cmd
}
