package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smartdevs17/fbft-benchlogs/internal/config"
	"github.com/smartdevs17/fbft-benchlogs/internal/models"
	"github.com/smartdevs17/fbft-benchlogs/internal/server"
)

// analysisOverrides applies the analysis flags shared by analyze and experiment
func analysisOverrides(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("output") {
			cfg.Analysis.OutputDir, _ = flags.GetString("output")
		}
		if flags.Changed("summary") {
			cfg.Analysis.WriteSummary, _ = flags.GetBool("summary")
		}
		if flags.Changed("workers") {
			cfg.Analysis.Workers, _ = flags.GetInt("workers")
		}
		if store, _ := flags.GetBool("store"); store {
			cfg.Storage.Enabled = true
		}
	}
}

func addAnalysisFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "directory receiving the CSV files (default from config)")
	cmd.Flags().Bool("summary", true, "append the text summary to the summary file")
	cmd.Flags().Int("workers", 0, "number of logs parsed concurrently (default from config)")
	cmd.Flags().Bool("store", false, "save results to the configured database")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <run-dir>",
	Short: "Analyze one benchmark run directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(analysisOverrides(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		report, err := app.analyzer.AnalyzeRun(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Print(report.Metrics.Summary())
		fmt.Printf("\nResults appended to %s and %s\n", report.SummaryCSV, report.HeightCSV)
		if report.Stored {
			fmt.Printf("Stored as run %s\n", report.ID)
		}
		return nil
	},
}

var experimentCmd = &cobra.Command{
	Use:   "experiment <experiment-dir>",
	Short: "Analyze every run of an experiment and aggregate them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(analysisOverrides(cmd))
		if err != nil {
			return err
		}
		defer app.Close()

		ctx, cancel := signalContext()
		defer cancel()

		experiment, reports, err := app.analyzer.AnalyzeExperiment(ctx, args[0])
		if err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Printf("%s: %s blocks/s, %s ms mean latency\n", r.Directory,
				humanize.FtoaWithDigits(r.Metrics.Throughput, 5),
				humanize.Comma(int64(r.Metrics.Latency.Mean*1000)))
		}
		fmt.Print(experiment.Summary())
		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Query stored analysis results",
}

func enableStorage(cfg *config.Config) { cfg.Storage.Enabled = true }

var listResultsCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(enableStorage)
		if err != nil {
			return err
		}
		defer app.Close()

		filter := models.RunFilter{}
		filter.Limit, _ = cmd.Flags().GetInt("limit")
		if cmd.Flags().Changed("nodes") {
			n, _ := cmd.Flags().GetInt("nodes")
			filter.Nodes = &n
		}
		if cmd.Flags().Changed("faults") {
			f, _ := cmd.Flags().GetInt("faults")
			filter.Faults = &f
		}

		runs, err := app.storage.GetRuns(cmd.Context(), filter)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNODES\tFAULTS\tBLOCKS\tTHROUGHPUT\tLATENCY (ms)\tANALYZED\tDIRECTORY")
		for _, r := range runs {
			latency := "-"
			if r.LatencyMean != nil {
				latency = humanize.Comma(int64(*r.LatencyMean * 1000))
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
				shortID(r.ID), r.Nodes, r.Faults, r.Blocks,
				humanize.FtoaWithDigits(r.Throughput, 5), latency,
				humanize.Time(r.AnalyzedAt), r.Directory)
		}
		return w.Flush()
	},
}

// shortID abbreviates run IDs for tables
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

var showResultCmd = &cobra.Command{
	Use:   "show <run-id-or-prefix>",
	Short: "Print a stored run and its per-height rows as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(enableStorage)
		if err != nil {
			return err
		}
		defer app.Close()

		id, err := app.storage.ResolveRunID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		run, err := app.storage.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		heights, err := app.storage.GetHeights(cmd.Context(), id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"run": run, "heights": heights})
	},
}

var deleteResultCmd = &cobra.Command{
	Use:   "delete <run-id-or-prefix>",
	Short: "Delete a stored run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(enableStorage)
		if err != nil {
			return err
		}
		defer app.Close()

		id, err := app.storage.ResolveRunID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := app.storage.DeleteRun(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted run %s\n", id)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored results and metrics over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApplication(enableStorage)
		if err != nil {
			return err
		}
		defer app.Close()

		app.server = server.NewHTTPServer(&app.config.Server, app.storage, app.metrics, AppVersion)
		if err := app.server.Start(); err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()
		<-ctx.Done()
		app.logger.Info("Received shutdown signal, stopping server")
		return app.server.Stop()
	},
}

func init() {
	addAnalysisFlags(analyzeCmd)
	addAnalysisFlags(experimentCmd)

	listResultsCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	listResultsCmd.Flags().Int("nodes", 0, "only runs with this committee size")
	listResultsCmd.Flags().Int("faults", 0, "only runs with this number of faults")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(serveCmd)
	resultsCmd.AddCommand(listResultsCmd)
	resultsCmd.AddCommand(showResultCmd)
	resultsCmd.AddCommand(deleteResultCmd)
}
