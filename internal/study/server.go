// Package study is the review-scheduling and adaptive-sampling engine:
// it selects the cards a user is due to review, draws weighted samples for
// self-testing, grades submitted answers, and advances the per-card
// scheduling state through the srs package.
package study

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/avelichko/lexicards/config"
	"github.com/avelichko/lexicards/internal/stores"
)

type nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}

// Rng is the slice of math/rand/v2 the sampler uses. Inject a seeded
// *rand.Rand in tests for reproducible draws.
type Rng interface {
	Perm(n int) []int
}

// globalRng defers to the process-global generator, which is safe for
// concurrent use.
type globalRng struct{}

func (globalRng) Perm(n int) []int { return rand.Perm(n) }

// ProgressStore is the slice of the persistence layer a single card's
// read-modify-write runs against.
type ProgressStore interface {
	GetOrCreateProgress(ctx context.Context, userID, cardID int64) (stores.Progress, error)
	SaveProgress(ctx context.Context, p stores.Progress, now time.Time) error
}

// Store is the persistence contract the study server is built on.
type Store interface {
	GetCard(ctx context.Context, id int64) (stores.Card, error)
	ListDue(ctx context.Context, arg stores.ListDueParams) ([]stores.CardWithProgress, error)
	ListAllWithProgress(ctx context.Context, userID int64) ([]stores.CardWithProgress, error)
	AggregateStats(ctx context.Context, arg stores.AggregateStatsParams) (stores.Stats, error)
	CreateStudySession(ctx context.Context, arg stores.CreateStudySessionParams) (stores.StudySession, error)
	// InTx runs fn in a transaction so each card update is atomic with
	// respect to concurrent submissions touching the same card.
	InTx(ctx context.Context, fn func(ps ProgressStore) error) error
}

type Server struct {
	Config *config.Config
	Store  Store
	Nower  nower
	Rng    Rng
}

func NewServer(cfg *config.Config, store Store) *Server {
	return &Server{cfg, store, RealNower{}, globalRng{}}
}

// sqlStore adapts stores.Store to the Store interface above.
type sqlStore struct {
	*stores.Store
}

// NewSQLStore wraps the pgx-backed store for use by the study server.
func NewSQLStore(s *stores.Store) Store {
	return sqlStore{s}
}

func (s sqlStore) InTx(ctx context.Context, fn func(ps ProgressStore) error) error {
	return s.Store.InTx(ctx, func(q *stores.Queries) error {
		return fn(q)
	})
}
