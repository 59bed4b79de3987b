package session

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
	"github.com/pubgraph/pubmed-sync/internal/logging"
	"github.com/pubgraph/pubmed-sync/internal/worker"
)

func result(col baseline.Collection, seq int, outcome worker.Outcome, reason worker.FailureReason) worker.Result {
	return worker.Result{
		Descriptor: col.Descriptor(seq),
		Outcome:    outcome,
		Reason:     reason,
	}
}

func setOf(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

func TestSessionApply(t *testing.T) {
	col := baseline.Collection{Year: 2025}

	tests := []struct {
		name        string
		results     []worker.Result
		wantPending map[string]struct{}
		wantAbsent  map[string]struct{}
		wantStats   RoundStats
	}{
		{
			name: "partitions outcomes into the session sets",
			results: []worker.Result{
				result(col, 1, worker.OutcomeVerified, ""),
				result(col, 2, worker.OutcomeDownloaded, ""),
				result(col, 3, worker.OutcomeNotFound, ""),
				result(col, 4, worker.OutcomeFailed, worker.ReasonTransient),
				result(col, 5, worker.OutcomeFailed, worker.ReasonChecksumMismatch),
			},
			wantPending: setOf("pubmed25n0004.xml.gz", "pubmed25n0005.xml.gz"),
			wantAbsent:  setOf("pubmed25n0003.xml.gz"),
			wantStats:   RoundStats{Verified: 1, Downloaded: 1, Absent: 1, Failed: 2},
		},
		{
			name: "all resolved",
			results: []worker.Result{
				result(col, 1, worker.OutcomeDownloaded, ""),
				result(col, 2, worker.OutcomeDownloaded, ""),
				result(col, 3, worker.OutcomeDownloaded, ""),
				result(col, 4, worker.OutcomeVerified, ""),
				result(col, 5, worker.OutcomeVerified, ""),
			},
			wantPending: setOf(),
			wantAbsent:  setOf(),
			wantStats:   RoundStats{Verified: 2, Downloaded: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, 0, 5)
			for _, d := range col.Descriptors(5) {
				names = append(names, d.Name)
			}
			sess := NewSession(names)

			stats := sess.Apply(tt.results)

			if !reflect.DeepEqual(sess.Pending, tt.wantPending) {
				t.Errorf("Pending = %v, want %v", sess.Pending, tt.wantPending)
			}
			if !reflect.DeepEqual(sess.ConfirmedAbsent, tt.wantAbsent) {
				t.Errorf("ConfirmedAbsent = %v, want %v", sess.ConfirmedAbsent, tt.wantAbsent)
			}
			if stats != tt.wantStats {
				t.Errorf("stats = %+v, want %+v", stats, tt.wantStats)
			}
			if sess.Rounds != 1 {
				t.Errorf("Rounds = %d, want 1", sess.Rounds)
			}

			// Pending and ConfirmedAbsent stay disjoint, and together with
			// the resolved names they cover the full inventory.
			resolved := len(names) - len(sess.Pending) - len(sess.ConfirmedAbsent)
			if resolved != tt.wantStats.Verified+tt.wantStats.Downloaded {
				t.Errorf("resolved = %d, want %d", resolved, tt.wantStats.Verified+tt.wantStats.Downloaded)
			}
			for name := range sess.Pending {
				if _, ok := sess.ConfirmedAbsent[name]; ok {
					t.Errorf("%s is both pending and confirmed absent", name)
				}
			}
		})
	}
}

func TestSessionFailureReason(t *testing.T) {
	col := baseline.Collection{Year: 2025}
	sess := NewSession([]string{col.Descriptor(1).Name})

	sess.Apply([]worker.Result{result(col, 1, worker.OutcomeFailed, worker.ReasonSizeMismatch)})

	reason, ok := sess.FailureReason(col.Descriptor(1).Name)
	if !ok || reason != worker.ReasonSizeMismatch {
		t.Errorf("FailureReason = %q, %v; want %q, true", reason, ok, worker.ReasonSizeMismatch)
	}
}

// fakeScheduler resolves outcomes from a script and records the names
// scheduled each round.
type fakeScheduler struct {
	outcome func(round int, d baseline.Descriptor) worker.Result
	rounds  [][]string
}

func (f *fakeScheduler) Run(ctx context.Context, descriptors []baseline.Descriptor, targetDir string) []worker.Result {
	round := len(f.rounds) + 1

	names := make([]string, 0, len(descriptors))
	results := make([]worker.Result, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Name)
		results = append(results, f.outcome(round, d))
	}
	sort.Strings(names)
	f.rounds = append(f.rounds, names)

	return results
}

func TestCoordinatorSingleCleanRound(t *testing.T) {
	col := baseline.Collection{Year: 2025}

	// Scenario: 5 files, n0003 is absent upstream, the rest succeed on the
	// first attempt.
	scheduler := &fakeScheduler{
		outcome: func(round int, d baseline.Descriptor) worker.Result {
			if d.Name == "pubmed25n0003.xml.gz" {
				return worker.Result{Descriptor: d, Outcome: worker.OutcomeNotFound}
			}
			return worker.Result{Descriptor: d, Outcome: worker.OutcomeDownloaded}
		},
	}

	coordinator := NewCoordinator(scheduler, 3, logging.Nop())
	sess := coordinator.Run(context.Background(), col, 5, "/tmp/ignored")

	if len(scheduler.rounds) != 1 {
		t.Fatalf("scheduled %d rounds, want 1", len(scheduler.rounds))
	}
	if len(sess.Pending) != 0 {
		t.Errorf("Pending = %v, want empty", sess.Pending)
	}
	if !reflect.DeepEqual(sess.ConfirmedAbsent, setOf("pubmed25n0003.xml.gz")) {
		t.Errorf("ConfirmedAbsent = %v, want {pubmed25n0003.xml.gz}", sess.ConfirmedAbsent)
	}

	onDisk := []string{
		"pubmed25n0001.xml.gz",
		"pubmed25n0002.xml.gz",
		"pubmed25n0004.xml.gz",
		"pubmed25n0005.xml.gz",
	}
	report := Reconcile(col, 5, sess, onDisk)
	if !report.Clean() {
		t.Errorf("report = %+v, want clean", report)
	}
}

func TestCoordinatorBoundedTermination(t *testing.T) {
	col := baseline.Collection{Year: 2025}

	// n0002 fails every attempt; everything else succeeds immediately.
	scheduler := &fakeScheduler{
		outcome: func(round int, d baseline.Descriptor) worker.Result {
			if d.Name == "pubmed25n0002.xml.gz" {
				return worker.Result{Descriptor: d, Outcome: worker.OutcomeFailed, Reason: worker.ReasonTransient}
			}
			return worker.Result{Descriptor: d, Outcome: worker.OutcomeDownloaded}
		},
	}

	coordinator := NewCoordinator(scheduler, 2, logging.Nop())
	sess := coordinator.Run(context.Background(), col, 5, "/tmp/ignored")

	if len(scheduler.rounds) != 2 {
		t.Fatalf("scheduled %d rounds, want exactly 2", len(scheduler.rounds))
	}
	if want := []string{"pubmed25n0002.xml.gz"}; !reflect.DeepEqual(scheduler.rounds[1], want) {
		t.Errorf("second round work set = %v, want %v", scheduler.rounds[1], want)
	}
	if !reflect.DeepEqual(sess.Pending, setOf("pubmed25n0002.xml.gz")) {
		t.Errorf("Pending = %v, want {pubmed25n0002.xml.gz}", sess.Pending)
	}

	report := Reconcile(col, 5, sess, []string{
		"pubmed25n0001.xml.gz",
		"pubmed25n0003.xml.gz",
		"pubmed25n0004.xml.gz",
		"pubmed25n0005.xml.gz",
	})
	if want := []string{"pubmed25n0002.xml.gz"}; !reflect.DeepEqual(report.StillFailing, want) {
		t.Errorf("StillFailing = %v, want %v", report.StillFailing, want)
	}
}

func TestCoordinatorAbsenceIsSticky(t *testing.T) {
	col := baseline.Collection{Year: 2025}

	// n0003 is absent upstream; n0004 needs a second round. The absent name
	// must not be rescheduled alongside the retry.
	scheduler := &fakeScheduler{
		outcome: func(round int, d baseline.Descriptor) worker.Result {
			switch {
			case d.Name == "pubmed25n0003.xml.gz":
				return worker.Result{Descriptor: d, Outcome: worker.OutcomeNotFound}
			case d.Name == "pubmed25n0004.xml.gz" && round == 1:
				return worker.Result{Descriptor: d, Outcome: worker.OutcomeFailed, Reason: worker.ReasonTransient}
			default:
				return worker.Result{Descriptor: d, Outcome: worker.OutcomeDownloaded}
			}
		},
	}

	coordinator := NewCoordinator(scheduler, 3, logging.Nop())
	sess := coordinator.Run(context.Background(), col, 5, "/tmp/ignored")

	if len(scheduler.rounds) != 2 {
		t.Fatalf("scheduled %d rounds, want 2", len(scheduler.rounds))
	}
	if want := []string{"pubmed25n0004.xml.gz"}; !reflect.DeepEqual(scheduler.rounds[1], want) {
		t.Errorf("second round work set = %v, want %v", scheduler.rounds[1], want)
	}
	if len(sess.Pending) != 0 {
		t.Errorf("Pending = %v, want empty", sess.Pending)
	}

	report := Reconcile(col, 5, sess, []string{
		"pubmed25n0001.xml.gz",
		"pubmed25n0002.xml.gz",
		"pubmed25n0004.xml.gz",
		"pubmed25n0005.xml.gz",
	})
	if len(report.Missing) != 0 {
		t.Errorf("Missing = %v; a confirmed-absent file must never be reported missing", report.Missing)
	}
}
