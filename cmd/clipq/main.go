package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"clipq/internal/app"
	"clipq/internal/clipq"
	"clipq/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "run", "status").
func newApp(operation string, verbose bool) (*app.App, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}

	opts := app.Options{Operation: operation, Out: os.Stdout, Verbose: verbose}
	if verbose {
		opts.Stderr = os.Stderr
	}
	a, err := app.NewApp(cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal without echo. When stdin is not a
// terminal the passphrase is read as one line.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

var rootCmd = &cobra.Command{
	Use:          "clipq",
	Short:        "Batch video publisher with per-account daily quotas",
	SilenceUsage:  true,
}

// config command
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
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Next: add [[accounts]] and [hooks] commands, then run `clipq db migrate` and `clipq keys init`.")
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
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Input Dir:   %s\n", cfg.InputDir)
		fmt.Printf("Concurrency: %d\n", cfg.Batch.Concurrency)
		fmt.Printf("Target:      %d per account per day\n", cfg.Batch.Target)
		fmt.Printf("Database:    %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Encryption:  %s\n", cfg.Encryption.Type)
		for _, acct := range cfg.Accounts {
			fmt.Printf("Account:     %s %s\n", acct.ID, acct.Name)
		}
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:       %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage ledger snapshot encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the snapshot key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.InitKeys(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ledger database",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending ledger migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Ledger schema is up to date.")
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Publish the videos in the input directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		target, _ := cmd.Flags().GetInt("target")
		input, _ := cmd.Flags().GetString("input")
		recursive, _ := cmd.Flags().GetBool("recursive")
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp("run", verbose)
		if err != nil {
			return err
		}

		_, runErr := a.RunBatch(ctx, input, recursive, clipq.BatchOptions{Concurrency: concurrency, Target: target})
		if err := a.Close(); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status [DIR]",
	Short: "Show which input files are already processed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("status", false)
		if err != nil {
			return err
		}
		defer a.Close()

		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		statuses, err := a.GetStatus(dir, recursive)
		if err != nil {
			return err
		}

		if len(statuses) == 0 {
			fmt.Println("No videos found.")
			return nil
		}

		for _, s := range statuses {
			indicator := "?  "
			if s.IsProcessed {
				indicator = "P  "
			}
			fmt.Printf("%s %s  %s\n", indicator, s.Fingerprint[:12], s.RelativePath)
		}
		return nil
	},
}

// ledger command
var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect and restore the dedup ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recently published content",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ledger list", false)
		if err != nil {
			return err
		}
		defer a.Close()

		recs, err := a.GetLedger(limit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("Ledger is empty.")
			return nil
		}

		for _, r := range recs {
			deleted := ""
			if r.Deleted {
				deleted = "  [deleted]"
			}
			fmt.Printf("%s  %s  %-12s  %-12s  %s%s\n",
				r.Fingerprint[:12],
				r.ProcessedAt.Local().Format("2006-01-02 15:04:05"),
				r.AccountID,
				r.CatalogID,
				r.FileName,
				deleted,
			)
		}
		return nil
	},
}

var ledgerShowCmd = &cobra.Command{
	Use:   "show FINGERPRINT",
	Short: "Show one ledger record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ledger show", false)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.GetRecord(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Fingerprint:  %s\n", r.Fingerprint)
		fmt.Printf("File:         %s\n", r.FileName)
		fmt.Printf("Catalog ID:   %s\n", r.CatalogID)
		fmt.Printf("Account:      %s\n", r.AccountID)
		fmt.Printf("Processed at: %s\n", r.ProcessedAt.Local().Format(time.RFC3339))
		fmt.Printf("Deleted:      %t\n", r.Deleted)
		return nil
	},
}

var ledgerRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the local ledger with the newest vault snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		version, err := app.RestoreLedger(cfg, func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return err
		}
		fmt.Printf("Ledger restored from snapshot version %d\n", version)
		return nil
	},
}

// quota command
var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's publishes per account",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("quota", false)
		if err != nil {
			return err
		}
		defer a.Close()

		snaps, err := a.GetQuota()
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No accounts configured.")
			return nil
		}
		for _, s := range snaps {
			fmt.Printf("%-16s  %s\n", s.AccountID, s.Status)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View batch run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history", false)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No batch runs recorded.")
			return nil
		}

		for _, run := range runs {
			duration := ""
			if run.FinishedAt.Valid {
				d := run.FinishedAt.Time.Sub(run.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-8s  %s  %-10s  %-10s  %s\n",
				run.ID,
				run.Operation,
				run.StartedAt.Local().Format("2006-01-02 15:04:05"),
				run.Status,
				duration,
				run.Summary,
			)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	keysCmd.AddCommand(keysInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)

	// ledger subcommands
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerListCmd.Flags().IntP("limit", "n", 50, "Maximum number of records to show")
	ledgerCmd.AddCommand(ledgerShowCmd)
	ledgerCmd.AddCommand(ledgerRestoreCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntP("concurrency", "c", 0, "Maximum accounts publishing at once (default from config)")
	runCmd.Flags().IntP("target", "t", 0, "Publishes per account per day (default from config)")
	runCmd.Flags().StringP("input", "i", "", "Input directory (default from config)")
	runCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	runCmd.Flags().BoolP("verbose", "v", false, "Show progress ticks and log lines")
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolP("recursive", "r", false, "Recurse into subdirectories")
	rootCmd.AddCommand(ledgerCmd)
	rootCmd.AddCommand(quotaCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
}
