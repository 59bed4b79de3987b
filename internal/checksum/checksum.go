// Package checksum fetches the archive's official checksums and digests
// local files for comparison.
package checksum

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
)

const bufferSize = 64 * 1024 // 64KB buffer

// ErrNotFound reports that the server has no checksum resource for the
// file. The archive publishes a checksum beside every file it serves, so a
// 404 here is authoritative evidence the file does not exist upstream.
var ErrNotFound = errors.New("checksum resource not found")

// Oracle resolves official checksums over HTTP.
type Oracle struct {
	client *resty.Client
}

func NewOracle(client *resty.Client) *Oracle {
	return &Oracle{client: client}
}

// FetchOfficial retrieves the authoritative checksum for a descriptor.
// A 404 on the checksum resource is returned as ErrNotFound; every other
// HTTP or transport failure is a plain error.
func (o *Oracle) FetchOfficial(ctx context.Context, d baseline.Descriptor) (string, error) {
	resp, err := o.client.R().SetContext(ctx).Get(d.ChecksumURL)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", d.ChecksumURL, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.IsError() {
		return "", fmt.Errorf("get %s: status %d", d.ChecksumURL, resp.StatusCode())
	}

	return Parse(resp.String())
}

// Parse extracts the digest from a checksum resource body. The body is a
// single "key= value" line; the value after the first '=' is the digest,
// trimmed of surrounding whitespace.
func Parse(body string) (string, error) {
	_, value, found := strings.Cut(body, "=")
	if !found {
		return "", fmt.Errorf("malformed checksum body %q", body)
	}

	digest := strings.TrimSpace(value)
	if digest == "" {
		return "", fmt.Errorf("empty digest in checksum body %q", body)
	}

	return digest, nil
}

// ComputeLocal digests a local file with the archive's algorithm (MD5) and
// returns the lower-case hex string. The error is os-level when the file
// does not exist or cannot be read.
func ComputeLocal(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	buffer := make([]byte, bufferSize)

	for {
		n, err := file.Read(buffer)
		if n > 0 {
			if _, err := hash.Write(buffer[:n]); err != nil {
				return "", fmt.Errorf("write to hash: %w", err)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
