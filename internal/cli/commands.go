package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/healthrix/internal/app"
	"github.com/okian/healthrix/internal/report"
	"github.com/okian/healthrix/pkg/logger"
)

// withEnv wraps a command body with env setup and teardown.
func withEnv(opts *globalOptions, run func(cmd *cobra.Command, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd, opts)
		if err != nil {
			return err
		}
		defer e.Close()
		return run(cmd, e)
	}
}

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load the given sheets into the SQLite database",
		Long: `import loads --employees, --activities and --behavior into --db and exits.
Days present in the activity sheet replace what the database already holds
for those days.`,
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			if e.cfg.SQLitePath == "" {
				return errors.New("import needs a database: pass --db")
			}
			ctx := cmd.Context()
			store := e.svc.Store()
			n, err := store.Len(ctx)
			if err != nil {
				return err
			}
			emps, err := store.Employees(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s: %d activities, %d employees", e.cfg.SQLitePath, n, len(emps))
			if first, last, ok, err := store.DateSpan(ctx); err == nil && ok {
				_, _ = fmt.Fprintf(out, ", %s to %s", first, last)
			}
			_, _ = fmt.Fprintln(out)
			return nil
		}),
	}
}

func newScoreCmd(opts *globalOptions) *cobra.Command {
	var employee, date string
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Show the detailed score of one employee-day",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			ctx := cmd.Context()
			day, err := e.resolveDate(ctx, date)
			if err != nil {
				return err
			}
			score, ok, err := e.svc.ScoreEmployee(ctx, employee, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				_, _ = fmt.Fprintf(out, "No activity for %s on %s.\n", employee, day)
				return nil
			}
			_, _ = fmt.Fprintln(out, report.Detailed(score))
			return nil
		}),
	}
	cmd.Flags().StringVar(&employee, "employee", "", "employee ID")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}

func newDailyCmd(opts *globalOptions) *cobra.Command {
	var date string
	var top int
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Score every employee for a day and save the batch",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			ctx := cmd.Context()
			day, err := e.resolveDate(ctx, date)
			if err != nil {
				return err
			}
			batch, err := e.svc.ScoreDay(ctx, day)
			if err != nil && !errors.Is(err, service.ErrSink) {
				return err
			}
			scores := batch.Scores
			if top > 0 && top < len(scores) {
				scores = scores[:top]
			}
			title := "HEALTHRIX AUTOMATED PERFORMANCE REPORT - " + day
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Summary(scores, title, e.cfg.Thresholds()))
			e.log.Info(ctx, "batch saved",
				logger.String("run_id", batch.RunID),
				logger.Int("scores", len(batch.Scores)),
			)
			return err
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	cmd.Flags().IntVar(&top, "top", 0, "show only the top N")
	return cmd
}

func newRangeCmd(opts *globalOptions) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Compare days across a date range",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			days, err := e.svc.Comparison(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.ComparisonReport(days))
			return nil
		}),
	}
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newTrendCmd(opts *globalOptions) *cobra.Command {
	var employee, from, to string
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show one employee's scores over a date range",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			scores, err := e.svc.Trend(cmd.Context(), employee, from, to)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Trend(scores))
			return nil
		}),
	}
	cmd.Flags().StringVar(&employee, "employee", "", "employee ID")
	cmd.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("employee")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newLeaderboardCmd(opts *globalOptions) *cobra.Command {
	var date string
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank employees for a day",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			ctx := cmd.Context()
			day, err := e.resolveDate(ctx, date)
			if err != nil {
				return err
			}
			rows, err := e.svc.Leaderboard(ctx, day, limit)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.Leaderboard(rows))
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	cmd.Flags().IntVar(&limit, "limit", 10, "number of rows")
	return cmd
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Team statistics and performance distribution for a day",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			ctx := cmd.Context()
			day, err := e.resolveDate(ctx, date)
			if err != nil {
				return err
			}
			st, dist, err := e.svc.Statistics(ctx, day)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.StatisticsReport(st, dist))
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	return cmd
}

func newAlertsCmd(opts *globalOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List employees below the alert thresholds",
		RunE: withEnv(opts, func(cmd *cobra.Command, e *env) error {
			ctx := cmd.Context()
			day, err := e.resolveDate(ctx, date)
			if err != nil {
				return err
			}
			alerts, err := e.svc.Alerts(ctx, day)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), report.AlertReport(alerts))
			e.log.Debug(ctx, "alerts raised", logger.Int("alerts", len(alerts)))
			return nil
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	return cmd
}
