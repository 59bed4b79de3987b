// Package worker downloads and validates individual archive files and runs
// batches of them under a bounded pool.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
	"github.com/pubgraph/pubmed-sync/internal/checksum"
)

// Syncer drives a single file to a terminal outcome.
type Syncer struct {
	client *resty.Client
	oracle *checksum.Oracle
	logger zerolog.Logger
}

func NewSyncer(client *resty.Client, oracle *checksum.Oracle, logger zerolog.Logger) *Syncer {
	return &Syncer{
		client: client,
		oracle: oracle,
		logger: logger,
	}
}

// Sync downloads and validates one file:
//
//  1. Fetch the official checksum; an authoritative 404 ends the attempt as
//     OutcomeNotFound without touching the network again.
//  2. Verify any existing local copy; a matching copy is OutcomeVerified, a
//     stale copy is deleted before redownload.
//  3. Stream the file to disk, checking written bytes against the declared
//     Content-Length.
//  4. Verify the fresh copy against the official checksum.
//
// Every failure path deletes the partial or corrupt file, so the target
// directory never holds an invalid copy. Sync is idempotent: rerunning it
// against unchanged remote content converges on OutcomeVerified.
func (s *Syncer) Sync(ctx context.Context, d baseline.Descriptor, targetDir string) Result {
	official, err := s.oracle.FetchOfficial(ctx, d)
	if err != nil {
		if errors.Is(err, checksum.ErrNotFound) {
			s.logger.Debug().Str("file", d.Name).Msg("absent upstream")
			return Result{Descriptor: d, Outcome: OutcomeNotFound}
		}
		return s.failed(d, ReasonTransient, err)
	}

	path := filepath.Join(targetDir, d.Name)

	// Verify any existing copy before transferring anything.
	if local, err := checksum.ComputeLocal(path); err == nil {
		if local == official {
			s.logger.Debug().Str("file", d.Name).Msg("local copy verified")
			return Result{Descriptor: d, Outcome: OutcomeVerified}
		}

		s.logger.Warn().Str("file", d.Name).Msg("stale local copy, redownloading")
		if err := os.Remove(path); err != nil {
			return s.failed(d, ReasonTransient, fmt.Errorf("remove stale file: %w", err))
		}
	}

	if reason, err := s.download(ctx, d, path); err != nil {
		s.discard(d, path)
		return s.failed(d, reason, err)
	}

	local, err := checksum.ComputeLocal(path)
	if err != nil {
		s.discard(d, path)
		return s.failed(d, ReasonTransient, fmt.Errorf("digest downloaded file: %w", err))
	}
	if local != official {
		s.discard(d, path)
		return s.failed(d, ReasonChecksumMismatch, fmt.Errorf("expected %s, got %s", official, local))
	}

	s.logger.Info().Str("file", d.Name).Msg("downloaded")
	return Result{Descriptor: d, Outcome: OutcomeDownloaded}
}

// download streams the remote file to path and accounts written bytes
// against the declared Content-Length. The returned reason classifies the
// failure for retry admission.
func (s *Syncer) download(ctx context.Context, d baseline.Descriptor, path string) (FailureReason, error) {
	resp, err := s.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(d.URL)
	if err != nil {
		return ReasonTransient, fmt.Errorf("get %s: %w", d.URL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return ReasonTransient, fmt.Errorf("get %s: status %d", d.URL, resp.StatusCode())
	}

	file, err := os.Create(path)
	if err != nil {
		return ReasonTransient, fmt.Errorf("create %s: %w", path, err)
	}

	written, err := io.Copy(file, body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return ReasonTransient, fmt.Errorf("write %s: %w", path, err)
	}

	if declared := resp.RawResponse.ContentLength; declared > 0 && written != declared {
		return ReasonSizeMismatch, fmt.Errorf("wrote %d of %d declared bytes", written, declared)
	}

	return "", nil
}

// discard removes a partial or corrupt file. Never leave an invalid copy on
// disk: the next round must start from a clean slate.
func (s *Syncer) discard(d baseline.Descriptor, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Error().Err(err).Str("file", d.Name).Msg("failed to remove invalid file")
	}
}

func (s *Syncer) failed(d baseline.Descriptor, reason FailureReason, err error) Result {
	s.logger.Error().Err(err).Str("file", d.Name).Str("reason", string(reason)).Msg("sync failed")
	return Result{Descriptor: d, Outcome: OutcomeFailed, Reason: reason, Err: err}
}
