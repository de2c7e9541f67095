// Command weekspend-report prints the week containing -date (default today)
// as a table plus the two chart series.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"weekspend/internal/cli"
	"weekspend/internal/config"
	"weekspend/internal/core"
	"weekspend/internal/log"
	"weekspend/internal/weekly"
)

func main() {
	date := flag.String("date", "", "reference date YYYY-MM-DD (default: today)")
	flag.Parse()

	var day core.Date
	if *date != "" {
		d, err := core.ParseDate(*date)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		day = d
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration:", err)
		os.Exit(1)
	}
	// Logs go to stderr so stdout stays the report.
	logCfg := log.DefaultConfig()
	logCfg.Component = log.ComponentCLI
	logCfg.Output = os.Stderr
	logCfg.Level, _ = log.ParseLevel(cfg.LogLevel)
	logger := log.New(logCfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = run(ctx, cfg, logger, day, os.Stdout)
	cancel()
	if err != nil {
		cli.Fatal(logger, "Report failed", err)
	}
}

// run prints the week containing day, or the current week when day is zero.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger, day core.Date, out io.Writer) error {
	be, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if be.Cleanup != nil {
		defer func() {
			if err := be.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", log.FieldError, err)
			}
		}()
	}

	reports, err := cli.NewReportService(cfg, be.Store, nil)
	if err != nil {
		return err
	}

	ref := reports.Now()
	if !day.IsZero() {
		ref = day.At(reports.Engine().Calendar().Location)
	}

	report, err := reports.WeekOf(ctx, ref)
	if err != nil {
		return fmt.Errorf("build week report: %w", err)
	}
	if err := printReport(out, report, reports.Engine().Formatter()); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func printReport(out io.Writer, r weekly.Report, f weekly.Formatter) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "Week\t%s to %s\n", r.Window.Days[0].Format(core.DateLayout), r.Window.Days[6].Format(core.DateLayout))
	fmt.Fprintf(tw, "Total\t%s\n", f.FormatCurrency(r.Total))
	fmt.Fprintf(tw, "Categories\t%d\n\n", len(r.ByCategory))

	fmt.Fprintln(tw, "DATE\tCATEGORY\tNOTE\tAMOUNT")
	if len(r.Expenses) == 0 {
		fmt.Fprintln(tw, "-\t-\tNo expenses this week yet.\t-")
	}
	for _, e := range r.Expenses {
		note := e.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Date, e.Category, note, f.FormatCurrency(e.Amount))
	}
	fmt.Fprintln(tw)

	writeSeries(tw, "BY CATEGORY", r.CategoryChart())
	writeSeries(tw, "BY DAY", r.DailyChart())
	return tw.Flush()
}

func writeSeries(w io.Writer, title string, s weekly.ChartSeries) {
	values := make([]string, len(s.Values))
	for i, v := range s.Values {
		values[i] = fmt.Sprintf("%.2f", v)
	}
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "%s\t\n", strings.Join(s.Labels, "\t"))
	fmt.Fprintf(w, "%s\t\n\n", strings.Join(values, "\t"))
}
