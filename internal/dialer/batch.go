package dialer

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the per-destination outcome of a batch dispatch.
type BatchItem struct {
	// Destination is the input exactly as given, before trimming.
	Destination string
	Outcome     Outcome
	Err         error
}

// DispatchBatch applies Dispatch to each destination. One destination's
// failure never stops its siblings; every failure is captured in its
// item. The only batch-level error is an empty input list.
//
// Items may run concurrently up to BatchConcurrency, but results are
// written by input index, so the returned slice always lines up with the
// input order.
func (s *Service) DispatchBatch(ctx context.Context, destinations []string, message string) ([]BatchItem, error) {
	if len(destinations) == 0 {
		return nil, ErrEmptyBatch
	}

	items := make([]BatchItem, len(destinations))

	var g errgroup.Group
	g.SetLimit(s.opts.BatchConcurrency)
	for i, destination := range destinations {
		i, destination := i, destination
		g.Go(func() error {
			out, err := s.Dispatch(ctx, destination, message)
			items[i] = BatchItem{Destination: destination, Outcome: out, Err: err}
			return nil
		})
	}
	// Workers never return errors; failures live in their items.
	_ = g.Wait()

	return items, nil
}
