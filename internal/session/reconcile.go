package session

import (
	"sort"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
)

// Report lists the discrepancies left after all rounds. An empty report is
// the only success condition.
type Report struct {
	// Missing are expected files not present in the target directory.
	Missing []string
	// StillFailing are files whose retries were exhausted.
	StillFailing []string
}

// Clean reports whether the collection exactly matches the expected remote
// set.
func (r Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.StillFailing) == 0
}

// Reconcile compares the expected file set (full inventory minus confirmed
// absences) against the names actually on disk. The two lists are computed
// independently: a file that exhausted its retries and is also absent on
// disk appears in both. Unrelated files in the directory are ignored.
func Reconcile(col baseline.Collection, count int, sess *Session, onDisk []string) Report {
	present := make(map[string]struct{}, len(onDisk))
	for _, name := range onDisk {
		present[name] = struct{}{}
	}

	report := Report{Missing: []string{}, StillFailing: []string{}}

	for _, d := range col.Descriptors(count) {
		if _, absent := sess.ConfirmedAbsent[d.Name]; absent {
			continue
		}
		if _, pending := sess.Pending[d.Name]; pending {
			report.StillFailing = append(report.StillFailing, d.Name)
		}
		if _, ok := present[d.Name]; !ok {
			report.Missing = append(report.Missing, d.Name)
		}
	}

	sort.Strings(report.Missing)
	sort.Strings(report.StillFailing)
	return report
}
