// Package cli implements the healthrix command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	activities string
	employees  string
	behavior   string
	standards  string
	db         string
	logLevel   string
	workers    int
}

var rootCmd = NewRootCmd()

// NewRootCmd builds the command tree with fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "healthrix",
		Short: "Daily performance scoring for back-office teams",
		Long: `healthrix scores each employee's day as 90% productivity and 10% behavior.

Productivity is the day's task points against the daily target. Behavior
starts at 100 and loses points for idle hours and conduct issues.
Activities come from CSV sheets or a SQLite database.`,
		SilenceUsage: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file (default $HEALTHRIX_CONFIG)")
	f.StringVar(&opts.activities, "activities", "", "activity CSV to import")
	f.StringVar(&opts.employees, "employees", "", "employee CSV to import")
	f.StringVar(&opts.behavior, "behavior", "", "daily behavior CSV to import (Date,Emp_ID,Idle_Hours,Conduct_Flag)")
	f.StringVar(&opts.standards, "standards", "", "task standards file (.csv or .yaml)")
	f.StringVar(&opts.db, "db", "", "SQLite database path")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.IntVar(&opts.workers, "workers", 0, "scoring workers (default from config)")

	cmd.AddCommand(
		newImportCmd(opts),
		newScoreCmd(opts),
		newDailyCmd(opts),
		newRangeCmd(opts),
		newTrendCmd(opts),
		newLeaderboardCmd(opts),
		newStatsCmd(opts),
		newAlertsCmd(opts),
		newExportCmd(opts),
		newStandardsCmd(opts),
		newSampleCmd(opts),
	)
	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
