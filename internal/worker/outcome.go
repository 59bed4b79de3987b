package worker

import "github.com/pubgraph/pubmed-sync/internal/baseline"

// Outcome is the terminal status of one sync attempt.
type Outcome int

const (
	// OutcomeVerified means a valid local copy already existed; nothing was
	// transferred.
	OutcomeVerified Outcome = iota
	// OutcomeDownloaded means the file was transferred and its checksum
	// verified.
	OutcomeDownloaded
	// OutcomeNotFound means the server authoritatively reported the file
	// absent; it is permanently out of scope.
	OutcomeNotFound
	// OutcomeFailed means the attempt failed for a retryable reason.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeVerified:
		return "verified"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeNotFound:
		return "not found"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureReason classifies a failed attempt.
type FailureReason string

const (
	ReasonSizeMismatch     FailureReason = "size mismatch"
	ReasonChecksumMismatch FailureReason = "checksum mismatch"
	ReasonTransient        FailureReason = "transient error"
)

// Result is the outcome of one attempt on one descriptor. Reason and Err
// are set only when Outcome is OutcomeFailed.
type Result struct {
	Descriptor baseline.Descriptor
	Outcome    Outcome
	Reason     FailureReason
	Err        error
}
