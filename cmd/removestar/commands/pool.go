package commands

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/removestar/pkg/removestar"
	"github.com/Sumatoshi-tech/removestar/pkg/walker"
)

// outcome is the result of processing one command line entry.
type outcome struct {
	path string
	// missing is set when the path itself could not be found or walked.
	missing bool
	result  *removestar.Result
	err     error
}

// workerCount resolves the jobs setting; zero means one worker per CPU.
func workerCount(jobs int) int {
	if jobs <= 0 {
		return runtime.NumCPU()
	}

	return jobs
}

// fixAll fixes every entry using up to jobs goroutines. Outcomes keep the
// order of entries so output is deterministic. Per-file failures land in the
// outcomes; the returned error is only set when ctx ends before every entry
// was started.
func fixAll(ctx context.Context, fixer *removestar.Fixer, entries []walker.Entry, jobs int) ([]outcome, error) {
	outcomes := make([]outcome, len(entries))

	var group errgroup.Group

	group.SetLimit(workerCount(jobs))

	for i, entry := range entries {
		outcomes[i].path = entry.Path

		if entry.Err != nil {
			outcomes[i].missing = true
			outcomes[i].err = entry.Err

			continue
		}

		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			outcomes[i].result, outcomes[i].err = fixer.FixFile(ctx, entry.Path)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return outcomes, fmt.Errorf("fix interrupted: %w", err)
	}

	return outcomes, nil
}
