package study

import (
	"context"

	"github.com/avelichko/lexicards/internal/stores"
)

// SelectDue returns the cards the subject should review: never-reviewed
// cards first, then cards whose next review has passed, oldest first. An
// empty selection is not an error.
func (s *Server) SelectDue(ctx context.Context, subjectID int64, limit int32) ([]stores.CardWithProgress, error) {
	if limit <= 0 {
		limit = int32(s.Config.DefaultCardLimit)
	}
	return s.Store.ListDue(ctx, stores.ListDueParams{
		UserID: subjectID,
		Now:    s.Nower.Now(),
		Limit:  limit,
	})
}
