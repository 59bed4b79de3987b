// Package inventory determines how many remote files a collection has by
// listing the archive's FTP directory.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
)

// EnumerationError wraps any failure to determine the remote file count.
// It is fatal to a run: without a count there is no work set to derive.
type EnumerationError struct {
	Err error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerate remote files: %v", e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Lister returns the raw entry names of the remote archive directory.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// FTPLister lists the archive directory over anonymous FTP.
type FTPLister struct {
	Addr    string // host:port
	Dir     string
	Timeout time.Duration
}

func (l *FTPLister) List(ctx context.Context) ([]string, error) {
	conn, err := ftp.Dial(l.Addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(l.Timeout))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", l.Addr, err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return nil, fmt.Errorf("anonymous login: %w", err)
	}

	names, err := conn.NameList(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", l.Dir, err)
	}

	return names, nil
}

// Inventory counts the remote files belonging to a collection.
type Inventory struct {
	lister Lister
	logger zerolog.Logger
}

func New(lister Lister, logger zerolog.Logger) *Inventory {
	return &Inventory{lister: lister, logger: logger}
}

// Count returns the number of remote files whose name matches the
// collection's prefix and suffix convention. A listing failure or an empty
// match set yields an *EnumerationError.
func (inv *Inventory) Count(ctx context.Context, col baseline.Collection) (int, error) {
	names, err := inv.lister.List(ctx)
	if err != nil {
		return 0, &EnumerationError{Err: err}
	}

	prefix, suffix := col.Prefix(), col.Suffix()
	count := 0
	for _, name := range names {
		// NLST may return full paths; match on the final element.
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			count++
		}
	}

	if count == 0 {
		return 0, &EnumerationError{Err: fmt.Errorf("no files matching %s*%s", prefix, suffix)}
	}

	inv.logger.Info().Int("year", col.Year).Int("count", count).Msg("remote inventory")
	return count, nil
}
