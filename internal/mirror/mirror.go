// Package mirror pushes a verified collection directory to an S3 bucket so
// downstream pipeline stages can read from shared storage. Objects are
// compared by size first and CRC64NVME checksum second; only changed
// content transfers.
package mirror

import (
	"context"
	"encoding/base64"
	"fmt"
	"hash/crc64"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pubgraph/pubmed-sync/internal/s3client"
)

// CRC64NVME polynomial as per AWS S3 specification
var crc64NVMETable = crc64.MakeTable(0x9a6c9329ac4bc9b5)

const defaultConcurrency = 32

// Options control plan generation.
type Options struct {
	DeleteEnabled bool
	Excludes      []string
}

// Result pairs a planned item with its execution error, if any.
type Result struct {
	Item  Item
	Error error
}

// Mirror plans and executes the push of a local directory to a bucket
// prefix.
type Mirror struct {
	client      s3client.Client
	concurrency int
	logger      zerolog.Logger
}

func New(client s3client.Client, concurrency int, logger zerolog.Logger) *Mirror {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Mirror{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Plan compares the local directory against the bucket prefix and returns
// the operations needed to make the remote side match.
func (m *Mirror) Plan(ctx context.Context, localDir, bucket, prefix string, opts Options) ([]Item, error) {
	local, err := gatherLocal(localDir, opts.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to gather local files: %w", err)
	}

	objects, err := m.client.ListObjects(ctx, &s3client.ListObjectsRequest{
		Bucket: bucket,
		Prefix: prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	remote := []FileMeta{}
	for _, obj := range objects {
		excluded, err := isExcluded(obj.Key, opts.Excludes)
		if err != nil {
			return nil, fmt.Errorf("failed to check exclude pattern for %s: %w", obj.Key, err)
		}
		if excluded {
			continue
		}
		remote = append(remote, FileMeta{Path: obj.Key, Size: obj.Size})
	}

	result := compare(local, remote, opts.DeleteEnabled)

	changed, err := m.collectChecksums(ctx, result.NeedChecksum, localDir, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to collect checksums: %w", err)
	}

	return buildPlan(result, changed, localDir), nil
}

// collectChecksums resolves the same-size pairs: local CRC64NVME against
// the object's stored checksum.
func (m *Mirror) collectChecksums(ctx context.Context, metas []FileMeta, localDir, bucket, prefix string) (map[string]bool, error) {
	changed := make(map[string]bool, len(metas))

	for _, meta := range metas {
		localSum, err := fileChecksum(filepath.Join(localDir, filepath.FromSlash(meta.Path)))
		if err != nil {
			return nil, fmt.Errorf("failed to calculate checksum for %s: %w", meta.Path, err)
		}

		info, err := m.client.HeadObject(ctx, &s3client.HeadObjectRequest{
			Bucket: bucket,
			Key:    path.Join(prefix, meta.Path),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to head object %s: %w", meta.Path, err)
		}

		if info.Checksum != localSum {
			changed[meta.Path] = true
		}
	}

	return changed, nil
}

// Execute runs the plan under a bounded semaphore and returns one Result
// per item, in item order.
func (m *Mirror) Execute(ctx context.Context, items []Item, bucket, prefix string) []Result {
	results := make([]Result, len(items))

	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		wg.Add(1)
		go func(idx int, itm Item) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			err := m.executeItem(ctx, itm, bucket, prefix)
			if err != nil {
				m.logger.Error().Err(err).Str("key", itm.Key).Str("action", string(itm.Action)).Msg("mirror operation failed")
			}

			results[idx] = Result{Item: itm, Error: err}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (m *Mirror) executeItem(ctx context.Context, item Item, bucket, prefix string) error {
	key := path.Join(prefix, item.Key)

	switch item.Action {
	case ActionUpload:
		m.logger.Info().Str("file", item.LocalPath).Str("key", key).Str("reason", item.Reason).Msg("upload")
		return m.upload(ctx, item, bucket, key)
	case ActionDelete:
		m.logger.Info().Str("key", key).Msg("delete")
		return m.client.DeleteObject(ctx, &s3client.DeleteObjectRequest{Bucket: bucket, Key: key})
	default:
		return nil
	}
}

func (m *Mirror) upload(ctx context.Context, item Item, bucket, key string) error {
	file, err := os.Open(item.LocalPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	err = m.client.PutObject(ctx, &s3client.PutObjectRequest{
		Bucket:      bucket,
		Key:         key,
		Body:        file,
		Size:        item.Size,
		ContentType: "application/gzip",
	})
	if err != nil {
		return fmt.Errorf("failed to upload: %w", err)
	}

	return nil
}

// gatherLocal walks the directory and returns file metadata with
// slash-separated relative paths, excludes applied.
func gatherLocal(baseDir string, excludes []string) ([]FileMeta, error) {
	var files []FileMeta

	err := filepath.WalkDir(baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(baseDir, p)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		excluded, err := isExcluded(relPath, excludes)
		if err != nil {
			return err
		}
		if excluded {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		files = append(files, FileMeta{Path: relPath, Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// fileChecksum computes the base64 CRC64NVME digest S3 stores for objects
// uploaded with that algorithm.
func fileChecksum(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := crc64.New(crc64NVMETable)
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}
