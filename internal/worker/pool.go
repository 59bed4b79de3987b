package worker

import (
	"context"
	"sync"

	"github.com/pubgraph/pubmed-sync/internal/baseline"
)

const defaultConcurrency = 10

// Pool runs syncs over a bounded set of workers.
type Pool struct {
	syncer      *Syncer
	concurrency int
}

func NewPool(syncer *Syncer, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Pool{
		syncer:      syncer,
		concurrency: concurrency,
	}
}

// Run dispatches every descriptor to a worker and blocks until each has a
// terminal Result. Result order is unspecified; callers may only rely on
// the result set being complete. A cancelled context still yields one
// Result per descriptor, classified as a transient failure.
func (p *Pool) Run(ctx context.Context, descriptors []baseline.Descriptor, targetDir string) []Result {
	jobs := make(chan baseline.Descriptor, len(descriptors))
	results := make(chan Result, len(descriptors))

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go p.worker(ctx, targetDir, jobs, results, &wg)
	}

	for _, d := range descriptors {
		jobs <- d
	}
	close(jobs)

	wg.Wait()
	close(results)

	all := make([]Result, 0, len(descriptors))
	for result := range results {
		all = append(all, result)
	}

	return all
}

func (p *Pool) worker(ctx context.Context, targetDir string, jobs <-chan baseline.Descriptor, results chan<- Result, wg *sync.WaitGroup) {
	defer wg.Done()

	for d := range jobs {
		select {
		case <-ctx.Done():
			// Drain the queue so the batch barrier still sees a terminal
			// result for every descriptor.
			results <- Result{Descriptor: d, Outcome: OutcomeFailed, Reason: ReasonTransient, Err: ctx.Err()}
			continue
		default:
		}

		results <- p.syncer.Sync(ctx, d, targetDir)
	}
}
