/*
main.go - clockctl command-line tool

PURPOSE:
  Operator tooling against a clock database without going through the
  HTTP server: compute a payroll report on the terminal, or export it
  as the same CSV the web dashboard produces.

USAGE:
  clockctl report --db clock.db --start 2025-01-01 --end 2025-01-31
  clockctl export --db clock.db --start 2025-01-01 --end 2025-01-31 -o jan.csv
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fnenow/clock/factory"
	"github.com/fnenow/clock/payroll"
	"github.com/fnenow/clock/report"
	"github.com/fnenow/clock/store/sqlite"
)

var (
	dbPath    string
	rulesPath string
	startDate string
	endDate   string
	workerID  string
	outPath   string
)

func main() {
	root := &cobra.Command{
		Use:           "clockctl",
		Short:         "Inspect and export payroll data from a clock database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "clock.db", "path to the sqlite database file")
	root.PersistentFlags().StringVar(&rulesPath, "rules", "", "optional JSON file with overtime rule overrides")
	root.PersistentFlags().StringVar(&startDate, "start", "", "period start date (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&endDate, "end", "", "period end date (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&workerID, "worker", "", "restrict to one worker id")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print computed pay lines for a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context())
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the payroll CSV for a period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd.Context())
		},
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default payroll_yymmddhh.csv)")

	root.AddCommand(reportCmd, exportCmd)

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func compute(ctx context.Context) ([]payroll.PayLine, report.Names, *sqlite.Store, error) {
	rule, err := factory.LoadRuleFile(rulesPath)
	if err != nil {
		return nil, report.Names{}, nil, err
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, report.Names{}, nil, err
	}

	filter := payroll.Filter{WorkerID: workerID}
	if startDate != "" {
		if filter.From, err = payroll.ParseWorkDate(startDate); err != nil {
			store.Close()
			return nil, report.Names{}, nil, err
		}
	}
	if endDate != "" {
		if filter.To, err = payroll.ParseWorkDate(endDate); err != nil {
			store.Close()
			return nil, report.Names{}, nil, err
		}
	}

	engine := payroll.NewEngine(store, store, store)
	engine.Rule = rule

	lines, err := engine.ComputePayroll(ctx, filter)
	if err != nil {
		store.Close()
		return nil, report.Names{}, nil, err
	}

	workers, err := store.WorkerNames(ctx)
	if err != nil {
		store.Close()
		return nil, report.Names{}, nil, err
	}
	projects, err := store.ProjectNames(ctx)
	if err != nil {
		store.Close()
		return nil, report.Names{}, nil, err
	}

	return lines, report.Names{Workers: workers, Projects: projects}, store, nil
}

func runReport(ctx context.Context) error {
	lines, names, store, err := compute(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Printf("%-8s %-20s %-20s %-12s %8s %8s %-8s %8s %10s\n",
		"ID", "Worker", "Project", "Date", "Reg", "OT", "Type", "Rate", "Amount")
	total := decimal.Zero
	for _, l := range lines {
		otType := "regular"
		switch l.Kind {
		case payroll.OvertimeDaily:
			otType = "daily"
		case payroll.OvertimeWeekly:
			otType = "weekly"
		}
		fmt.Printf("%-8d %-20s %-20s %-12s %8s %8s %-8s %8s %10s\n",
			l.EntryID,
			names.Worker(l.WorkerID),
			names.Project(l.ProjectID),
			l.WorkDate.String(),
			l.RegularHours.StringFixed(2),
			l.OvertimeHours.StringFixed(2),
			otType,
			l.PayRate.StringFixed(2),
			l.PayAmount.StringFixed(2),
		)
		total = total.Add(l.PayAmount)
	}
	fmt.Printf("%d pay lines, total %s\n", len(lines), total.StringFixed(2))
	return nil
}

func runExport(ctx context.Context) error {
	lines, names, store, err := compute(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	path := outPath
	if path == "" {
		path = report.Filename(time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := report.WriteCSV(f, lines, names); err != nil {
		return err
	}
	fmt.Printf("wrote %d pay lines to %s\n", len(lines), path)
	return nil
}
