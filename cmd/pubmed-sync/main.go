package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
	"github.com/pubgraph/pubmed-sync/internal/checksum"
	"github.com/pubgraph/pubmed-sync/internal/config"
	"github.com/pubgraph/pubmed-sync/internal/inventory"
	"github.com/pubgraph/pubmed-sync/internal/logging"
	"github.com/pubgraph/pubmed-sync/internal/session"
	"github.com/pubgraph/pubmed-sync/internal/worker"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

var (
	collectionDir string
	year          int
	maxWorkers    int
	maxRetries    int
	quiet         bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pubmed-sync",
		Short: "Checksum-verified mirror of the PubMed baseline archive",
		Long: `pubmed-sync downloads a year's PubMed baseline files, validates each one
against the server's published MD5 checksum, retries failures across bounded
rounds, and reconciles the local directory against the remote inventory.`,
		Version: fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Download and verify a full baseline collection",
		RunE:  runSync,
	}
	syncCmd.Flags().StringVar(&collectionDir, "collection-dir", "", "Directory to save baseline files")
	syncCmd.Flags().IntVar(&year, "year", 2025, "Baseline year to download")
	syncCmd.Flags().IntVar(&maxWorkers, "max-workers", 10, "Number of concurrent downloads")
	syncCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "Number of rounds over failed files")
	syncCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	_ = syncCmd.MarkFlagRequired("collection-dir")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Count the remote files for a baseline year",
		RunE:  runCount,
	}
	countCmd.Flags().IntVar(&year, "year", 2025, "Baseline year to count")
	countCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")

	rootCmd.AddCommand(syncCmd, countCmd, newMirrorCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.New(quiet)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := ensureDir(collectionDir); err != nil {
		return err
	}

	col := baseline.Collection{Year: year, BaseURL: cfg.BaseURL}

	inv := inventory.New(&inventory.FTPLister{
		Addr:    cfg.FTPAddr,
		Dir:     cfg.FTPDir,
		Timeout: cfg.FTPTimeout,
	}, logger)

	count, err := inv.Count(ctx, col)
	if err != nil {
		return err
	}

	// The oracle gets a request timeout; the transfer client does not, since
	// a baseline file can legitimately stream for longer than any fixed
	// per-request ceiling.
	oracle := checksum.NewOracle(resty.New().SetTimeout(cfg.HTTPTimeout))
	syncer := worker.NewSyncer(resty.New(), oracle, logger)
	pool := worker.NewPool(syncer, maxWorkers)

	coordinator := session.NewCoordinator(pool, maxRetries, logger)
	sess := coordinator.Run(ctx, col, count, collectionDir)

	onDisk, err := listDir(collectionDir)
	if err != nil {
		return err
	}

	report := session.Reconcile(col, count, sess, onDisk)
	if report.Clean() {
		absDir, _ := filepath.Abs(collectionDir)
		logger.Info().
			Int("files", count-len(sess.ConfirmedAbsent)).
			Int("absent_upstream", len(sess.ConfirmedAbsent)).
			Str("dir", absDir).
			Msg("collection complete and verified")
		return nil
	}

	printReport(report, sess)
	return fmt.Errorf("%d files missing, %d files still failing", len(report.Missing), len(report.StillFailing))
}

func runCount(cmd *cobra.Command, args []string) error {
	logger := logging.New(quiet)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	inv := inventory.New(&inventory.FTPLister{
		Addr:    cfg.FTPAddr,
		Dir:     cfg.FTPDir,
		Timeout: cfg.FTPTimeout,
	}, logger)

	count, err := inv.Count(cmd.Context(), baseline.Collection{Year: year})
	if err != nil {
		return err
	}

	fmt.Println(count)
	return nil
}

// ensureDir creates the collection directory if needed. A path that exists
// but is not a directory is fatal.
func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path %q exists but is not a directory", dir)
	}
	return nil
}

func listDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// printReport writes the full discrepancy lists to stdout so the operator
// can see exactly what to re-run for.
func printReport(report session.Report, sess *session.Session) {
	if len(report.StillFailing) > 0 {
		fmt.Println("The following files could not be downloaded or verified after all retries:")
		for _, name := range report.StillFailing {
			if reason, ok := sess.FailureReason(name); ok {
				fmt.Printf("- %s (%s)\n", name, reason)
			} else {
				fmt.Printf("- %s\n", name)
			}
		}
	}
	if len(report.Missing) > 0 {
		fmt.Println("The following files are missing from the collection directory:")
		for _, name := range report.Missing {
			fmt.Printf("- %s\n", name)
		}
	}
	fmt.Println("Re-run the sync to finish the job.")
}
