package engine

import (
	"context"
	"sync"

	"github.com/kode4food/renewal/pkg/api"
)

type forkResult struct {
	update api.Update
	err    error
}

// fork runs the fork pair concurrently against one snapshot, then merges
// their updates in declaration order regardless of completion order
func (r *run) fork(ctx context.Context) error {
	snapshot := r.state.Clone()
	results := make([]forkResult, len(forkPair))

	var wg sync.WaitGroup
	for i, node := range forkPair {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, err := r.call(ctx, node, snapshot.Clone())
			results[i] = forkResult{update: u, err: err}
		}()
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			return res.err
		}
	}
	for i, node := range forkPair {
		if err := r.apply(node, results[i].update); err != nil {
			return err
		}
	}
	return nil
}
