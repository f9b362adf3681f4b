package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/okian/healthrix/internal/app"
	"github.com/okian/healthrix/internal/report"
	"github.com/okian/healthrix/internal/sampledata"
	"github.com/okian/healthrix/pkg/logger"
)

func newExportCmd(opts *globalOptions) *cobra.Command {
	var date, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Score a day and export it as CSV, JSON, PDF or XLSX",
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
			sinkErr := err

			format = strings.ToLower(format)
			if out == "" || out == "-" {
				return errors.Join(report.Write(cmd.OutOrStdout(), format, batch.Scores, title(day)), sinkErr)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := report.Write(f, format, batch.Scores, title(day)); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			e.log.Info(ctx, "exported",
				logger.String("file", out),
				logger.String("format", format),
				logger.Int("scores", len(batch.Scores)),
			)
			return sinkErr
		}),
	}
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default latest)")
	cmd.Flags().StringVar(&format, "format", report.FormatCSV, "csv, json, pdf or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

func title(day string) string {
	return "Healthrix Performance Report - " + day
}

func newStandardsCmd(opts *globalOptions) *cobra.Command {
	var category string
	var asCSV bool
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "List task standards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			reg, err := loadStandards(cfg.StandardsFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asCSV {
				return reg.WriteCSV(out)
			}
			list := reg.Standards()
			if category != "" {
				filtered := list[:0]
				for _, st := range list {
					if strings.EqualFold(st.Category, category) {
						filtered = append(filtered, st)
					}
				}
				list = filtered
			}
			_, _ = fmt.Fprintln(out, report.Standards(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only tasks in this category")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "write CSV instead of a table")
	return cmd
}

func newSampleCmd(opts *globalOptions) *cobra.Command {
	cfg := sampledata.DefaultConfig()
	var dir string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Generate demo employee and activity sheets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appCfg, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			reg, err := loadStandards(appCfg.StandardsFile)
			if err != nil {
				return err
			}
			cfg.DailyTarget = appCfg.DailyTarget
			cfg.Logger = log
			ds, err := sampledata.Generate(cmd.Context(), cfg, reg.Standards())
			if err != nil {
				return err
			}
			emp, act, err := sampledata.WriteFiles(cmd.Context(), dir, ds)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d employees to %s\nWrote %d activities to %s\n",
				len(ds.Employees), emp, len(ds.Activities), act)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "out-dir", "data", "output directory")
	f.IntVar(&cfg.Employees, "count", cfg.Employees, "number of employees")
	f.IntVar(&cfg.Days, "days", cfg.Days, "number of working days")
	f.StringVar(&cfg.Start, "start", cfg.Start, "first date YYYY-MM-DD")
	f.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	f.BoolVar(&cfg.SkipWeekends, "skip-weekends", cfg.SkipWeekends, "skip Saturdays and Sundays")
	return cmd
}
