package main

import (
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/pubgraph/pubmed-sync/internal/logging"
	"github.com/pubgraph/pubmed-sync/internal/mirror"
	"github.com/pubgraph/pubmed-sync/internal/s3client"
)

var (
	mirrorDryRun      bool
	mirrorDelete      bool
	mirrorExcludes    []string
	mirrorConcurrency int
	mirrorProfile     string
	mirrorRegion      string
	mirrorQuiet       bool
)

func newMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror <collection-dir> <s3-uri>",
		Short: "Push a verified collection directory to S3",
		Long: `mirror compares a local collection directory against an S3 prefix using
CRC64NVME checksums and uploads only new or changed files, so downstream
pipeline stages can read the baseline from shared storage.`,
		Args: cobra.ExactArgs(2),
		RunE: runMirror,
	}

	cmd.Flags().BoolVar(&mirrorDryRun, "dryrun", false, "Show operations without executing")
	cmd.Flags().BoolVar(&mirrorDelete, "delete", false, "Delete remote objects not present locally")
	cmd.Flags().StringSliceVar(&mirrorExcludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	cmd.Flags().IntVar(&mirrorConcurrency, "concurrency", 32, "Number of concurrent operations")
	cmd.Flags().StringVar(&mirrorProfile, "profile", "", "AWS profile to use")
	cmd.Flags().StringVar(&mirrorRegion, "region", "", "AWS region (uses default if not specified)")
	cmd.Flags().BoolVar(&mirrorQuiet, "quiet", false, "Suppress non-error output")

	return cmd
}

func runMirror(cmd *cobra.Command, args []string) error {
	localDir := args[0]
	s3URI := args[1]

	bucket, prefix, err := parseS3URI(s3URI)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	logger := logging.New(mirrorQuiet)

	var configOpts []func(*awsconfig.LoadOptions) error
	if mirrorProfile != "" {
		configOpts = append(configOpts, awsconfig.WithSharedConfigProfile(mirrorProfile))
	}
	if mirrorRegion != "" {
		configOpts = append(configOpts, awsconfig.WithRegion(mirrorRegion))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	m := mirror.New(s3client.NewAWSClient(cfg), mirrorConcurrency, logger)

	items, err := m.Plan(ctx, localDir, bucket, prefix, mirror.Options{
		DeleteEnabled: mirrorDelete,
		Excludes:      mirrorExcludes,
	})
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}

	if len(items) == 0 {
		logger.Info().Msg("nothing to mirror, remote is up to date")
		return nil
	}

	if mirrorDryRun {
		for _, item := range items {
			fmt.Printf("(dryrun) %s: s3://%s/%s (%s)\n", item.Action, bucket, item.Key, item.Reason)
		}
		return nil
	}

	results := m.Execute(ctx, items, bucket, prefix)

	var failed int
	for _, result := range results {
		if result.Error != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d operations failed", failed)
	}

	logger.Info().Int("operations", len(items)).Msg("mirror complete")
	return nil
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "s3://") {
		return "", "", fmt.Errorf("URI must start with s3://")
	}

	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
	}

	if bucket == "" {
		return "", "", fmt.Errorf("bucket name cannot be empty")
	}

	return bucket, prefix, nil
}
