package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
	"github.com/pubgraph/pubmed-sync/internal/worker"
)

// Scheduler runs one concurrent batch to completion.
type Scheduler interface {
	Run(ctx context.Context, descriptors []baseline.Descriptor, targetDir string) []worker.Result
}

// Coordinator drives bounded retry rounds over a collection until the
// pending set drains or the round limit is reached. One flaky file never
// blocks the others, and the run always terminates.
type Coordinator struct {
	scheduler Scheduler
	maxRounds int
	logger    zerolog.Logger
}

func NewCoordinator(scheduler Scheduler, maxRounds int, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		scheduler: scheduler,
		maxRounds: maxRounds,
		logger:    logger,
	}
}

// Run executes up to maxRounds scheduling rounds and returns the final
// session state. Each round's work set is the sorted pending set left by
// the previous round.
func (c *Coordinator) Run(ctx context.Context, col baseline.Collection, count int, targetDir string) *Session {
	descriptors := col.Descriptors(count)

	byName := make(map[string]baseline.Descriptor, len(descriptors))
	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		byName[d.Name] = d
		names = append(names, d.Name)
	}

	sess := NewSession(names)

	for round := 1; round <= c.maxRounds; round++ {
		if len(sess.Pending) == 0 {
			break
		}

		pending := sess.PendingNames()
		c.logger.Info().
			Int("round", round).
			Int("max_rounds", c.maxRounds).
			Int("files", len(pending)).
			Msg("starting round")

		batch := make([]baseline.Descriptor, 0, len(pending))
		for _, name := range pending {
			batch = append(batch, byName[name])
		}

		stats := sess.Apply(c.scheduler.Run(ctx, batch, targetDir))
		c.logger.Info().
			Int("round", round).
			Int("verified", stats.Verified).
			Int("downloaded", stats.Downloaded).
			Int("absent", stats.Absent).
			Int("failed", stats.Failed).
			Msg("round complete")

		if ctx.Err() != nil {
			break
		}
	}

	return sess
}
