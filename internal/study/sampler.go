package study

import (
	"context"

	"github.com/avelichko/lexicards/internal/stores"
)

// baseWeight sets how strongly under-practiced cards dominate the test
// pool: a never-attempted card carries weight 10, and the weight decays to
// zero once a card has been attempted ten times.
const baseWeight = 10

// SelectForTest draws a weighted random sample of cards for self-testing,
// biased toward cards the subject has practiced least. Weights are scoped
// to the subject's own attempt counts. Each card occupies
// baseWeight/(attempts+1) slots in a virtual pool and the sample is drawn
// from pool slots without replacement, so a heavily weighted card can
// appear more than once in the result. When every card has aged out of the
// pool the sampler falls back to a uniform draw over the whole catalog.
func (s *Server) SelectForTest(ctx context.Context, subjectID int64, limit int) ([]stores.CardWithProgress, error) {
	if limit <= 0 {
		limit = s.Config.DefaultCardLimit
	}
	all, err := s.Store.ListAllWithProgress(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return []stores.CardWithProgress{}, nil
	}

	pool := make([]int, 0, len(all)*baseWeight)
	for i := range all {
		attempts := 0
		if all[i].Progress != nil {
			attempts = all[i].Progress.TotalAttempts
		}
		weight := baseWeight / (attempts + 1)
		for range weight {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		// Every card is well-practiced; quiz uniformly over the catalog.
		pool = make([]int, len(all))
		for i := range all {
			pool[i] = i
		}
	}

	k := min(limit, len(pool))
	sample := make([]stores.CardWithProgress, 0, k)
	for _, pos := range s.Rng.Perm(len(pool))[:k] {
		sample = append(sample, all[pool[pos]])
	}
	return sample, nil
}
