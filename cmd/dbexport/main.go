package main

import (
	"fmt"
	"os"
	"time"

	"dbexport/internal/app"
	"dbexport/internal/config"
	"dbexport/internal/export"
	"dbexport/internal/fsbroker"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App wired to the reference
// filesystem broker. A real deployment supplies its own export.StorageBroker
// instead — fsbroker exists so this CLI has something to run against.
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	broker := fsbroker.NewBroker(cfg.Broker.DSN)

	a, err := app.NewApp(cfg, broker)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "dbexport",
	Short: "Failsafe database export tool",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Target Dir: %s\n", cfg.Export.TargetDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Broker DSN:  %s\n", cfg.Broker.DSN)
		fmt.Printf("Target Dir:  %s\n", cfg.Export.TargetDir)
		fmt.Printf("Zip:         %v\n", cfg.Export.Zip)
		fmt.Printf("Max Inc.:    %d\n", cfg.Export.MaxIncremental)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run one export",
	RunE: func(cmd *cobra.Command, args []string) error {
		incremental, _ := cmd.Flags().GetBool("incremental")
		zip, _ := cmd.Flags().GetBool("zip")
		target, _ := cmd.Flags().GetString("target")
		maxIncremental, _ := cmd.Flags().GetInt("max-incremental")
		errorsPath, _ := cmd.Flags().GetString("errors")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if target != "" {
			a.SetTargetDir(target)
		}
		if cmd.Flags().Changed("zip") {
			a.SetZip(zip)
		}
		if cmd.Flags().Changed("max-incremental") {
			a.SetMaxIncremental(maxIncremental)
		}

		var errList export.ErrorList
		if errorsPath != "" {
			errList, err = loadErrorList(errorsPath)
			if err != nil {
				return fmt.Errorf("loading error report: %w", err)
			}
		}

		result, err := a.Export(incremental, errList)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Export complete: %s\n", result.ArchivePath)
		fmt.Printf("Run #%d  incremental=%v  seq=%d  documents=%d  orphans=%d  errors=%d\n",
			result.Run.ID, result.Run.Incremental, result.Run.SequenceNr,
			result.Run.DocumentsExported, result.Run.OrphansRescued, result.Run.ErrorsReported)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past export runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.Ledger().ListRuns(limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}

		if len(runs) == 0 {
			fmt.Println("No export runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			kind := "full"
			if r.Incremental {
				kind = "incremental"
			}
			fmt.Printf("#%d  %s  %-11s  %-8s  %s  docs=%d orphans=%d errors=%d\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), kind, r.Status, duration,
				r.DocumentsExported, r.OrphansRescued, r.ErrorsReported)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent export run",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.Ledger().LatestRun()
		if err != nil {
			return fmt.Errorf("reading latest run: %w", err)
		}
		if run == nil {
			fmt.Println("No export runs recorded.")
			return nil
		}

		fmt.Printf("Run #%d started %s, status=%s\n", run.ID, run.StartedAt.Format(time.RFC3339), run.Status)
		if run.Status == "running" {
			fmt.Println("(still in progress)")
			return nil
		}
		fmt.Printf("documents=%d orphans=%d errors=%d\n", run.DocumentsExported, run.OrphansRescued, run.ErrorsReported)
		if run.ArchivePath != nil {
			fmt.Printf("archive: %s\n", *run.ArchivePath)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	exportCmd.Flags().Bool("incremental", false, "run an incremental export against the last backup")
	exportCmd.Flags().Bool("zip", false, "write a single zip archive instead of a directory tree")
	exportCmd.Flags().String("target", "", "override the configured target directory")
	exportCmd.Flags().Int("max-incremental", 0, "override the configured sequence length before forcing a full backup")
	exportCmd.Flags().String("errors", "", "path to a JSON consistency-checker error report")
	rootCmd.AddCommand(exportCmd)

	historyCmd.Flags().IntP("limit", "n", 50, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)

	rootCmd.AddCommand(statusCmd)
}
