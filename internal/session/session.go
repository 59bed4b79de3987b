// Package session owns the retry-round state machine: which files are still
// pending, which the server has confirmed absent, and the reconciliation of
// the final on-disk state against the inventory.
package session

import (
	"sort"

	"github.com/pubgraph/pubmed-sync/internal/worker"
)

// Session tracks the work set across retry rounds. It is owned by the
// Coordinator and mutated only between rounds, never concurrently with a
// running batch. Pending and ConfirmedAbsent are disjoint at all times.
type Session struct {
	Pending         map[string]struct{}
	ConfirmedAbsent map[string]struct{}
	Rounds          int

	// last failure reason per still-pending name
	failures map[string]worker.FailureReason
}

func NewSession(names []string) *Session {
	pending := make(map[string]struct{}, len(names))
	for _, name := range names {
		pending[name] = struct{}{}
	}
	return &Session{
		Pending:         pending,
		ConfirmedAbsent: make(map[string]struct{}),
		failures:        make(map[string]worker.FailureReason),
	}
}

// PendingNames returns the pending set in sorted order.
func (s *Session) PendingNames() []string {
	names := make([]string, 0, len(s.Pending))
	for name := range s.Pending {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FailureReason returns the most recent failure reason recorded for a
// still-pending name.
func (s *Session) FailureReason(name string) (worker.FailureReason, bool) {
	reason, ok := s.failures[name]
	return reason, ok
}

// RoundStats summarizes one round's outcomes.
type RoundStats struct {
	Verified   int
	Downloaded int
	Absent     int
	Failed     int
}

// Apply partitions one round's results into the session sets and advances
// the round counter. Verified and downloaded names leave Pending entirely;
// not-found names move to ConfirmedAbsent; failed names stay pending as the
// next round's work set.
func (s *Session) Apply(results []worker.Result) RoundStats {
	var stats RoundStats

	for _, result := range results {
		name := result.Descriptor.Name
		switch result.Outcome {
		case worker.OutcomeVerified:
			delete(s.Pending, name)
			delete(s.failures, name)
			stats.Verified++
		case worker.OutcomeDownloaded:
			delete(s.Pending, name)
			delete(s.failures, name)
			stats.Downloaded++
		case worker.OutcomeNotFound:
			delete(s.Pending, name)
			delete(s.failures, name)
			s.ConfirmedAbsent[name] = struct{}{}
			stats.Absent++
		case worker.OutcomeFailed:
			s.failures[name] = result.Reason
			stats.Failed++
		}
	}

	s.Rounds++
	return stats
}
