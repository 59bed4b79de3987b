package mirror

import (
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Action is a planned operation against the bucket.
type Action string

const (
	ActionUpload Action = "upload"
	ActionDelete Action = "delete"
)

// Item is one planned operation.
type Item struct {
	Action    Action
	LocalPath string // absolute local path, empty for deletes
	Key       string // key relative to the prefix
	Size      int64
	Reason    string
}

// FileMeta describes one file on either side of the comparison.
type FileMeta struct {
	Path string // slash-separated path relative to the root/prefix
	Size int64
}

// compareResult partitions the two listings by what can be decided from
// sizes alone. Same-size pairs still need a checksum comparison.
type compareResult struct {
	New          []FileMeta
	SizeMismatch []FileMeta
	NeedChecksum []FileMeta
	Orphans      []FileMeta
}

// compare partitions local files against remote objects. Orphans (remote
// objects with no local counterpart) are collected only when deleteEnabled.
func compare(local []FileMeta, remote []FileMeta, deleteEnabled bool) compareResult {
	remoteMap := make(map[string]FileMeta, len(remote))
	for _, obj := range remote {
		remoteMap[obj.Path] = obj
	}

	localMap := make(map[string]FileMeta, len(local))
	result := compareResult{}

	for _, file := range local {
		localMap[file.Path] = file

		obj, exists := remoteMap[file.Path]
		switch {
		case !exists:
			result.New = append(result.New, file)
		case file.Size != obj.Size:
			result.SizeMismatch = append(result.SizeMismatch, file)
		default:
			result.NeedChecksum = append(result.NeedChecksum, file)
		}
	}

	if deleteEnabled {
		for _, obj := range remote {
			if _, exists := localMap[obj.Path]; !exists {
				result.Orphans = append(result.Orphans, obj)
			}
		}
	}

	sortMetas(result.New)
	sortMetas(result.SizeMismatch)
	sortMetas(result.NeedChecksum)
	sortMetas(result.Orphans)
	return result
}

func sortMetas(metas []FileMeta) {
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].Path < metas[j].Path
	})
}

// buildPlan turns a comparison plus the checksum verdicts into the ordered
// operation list. changed holds the need-checksum paths whose digests
// differed.
func buildPlan(result compareResult, changed map[string]bool, localBase string) []Item {
	items := []Item{}

	for _, file := range result.New {
		items = append(items, Item{
			Action:    ActionUpload,
			LocalPath: filepath.Join(localBase, filepath.FromSlash(file.Path)),
			Key:       file.Path,
			Size:      file.Size,
			Reason:    "new file",
		})
	}

	for _, file := range result.SizeMismatch {
		items = append(items, Item{
			Action:    ActionUpload,
			LocalPath: filepath.Join(localBase, filepath.FromSlash(file.Path)),
			Key:       file.Path,
			Size:      file.Size,
			Reason:    "size differs",
		})
	}

	for _, file := range result.NeedChecksum {
		if changed[file.Path] {
			items = append(items, Item{
				Action:    ActionUpload,
				LocalPath: filepath.Join(localBase, filepath.FromSlash(file.Path)),
				Key:       file.Path,
				Size:      file.Size,
				Reason:    "checksum differs",
			})
		}
	}

	for _, obj := range result.Orphans {
		items = append(items, Item{
			Action: ActionDelete,
			Key:    obj.Path,
			Size:   obj.Size,
			Reason: "deleted locally",
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Action != items[j].Action {
			return items[i].Action < items[j].Action
		}
		return items[i].Key < items[j].Key
	})

	return items
}

// isExcluded checks a slash-separated relative path against exclude globs.
func isExcluded(relPath string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
