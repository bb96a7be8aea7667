package study

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matryer/is"

	"github.com/avelichko/lexicards/config"
	"github.com/avelichko/lexicards/internal/stores"
)

type FakeNower struct{ fakenow time.Time }

func (f FakeNower) Now() time.Time {
	return f.fakenow
}

// fakeStore is an in-memory Store that mirrors the SQL layer's semantics
// closely enough for the engine tests: due ordering, lazy record creation,
// and conflict surfacing.
type fakeStore struct {
	cards    map[int64]stores.Card
	order    []int64 // catalog order
	progress map[int64]*stores.Progress
	sessions []stores.StudySession

	nextProgressID int64
	failSaves      int // makes the next N SaveProgress calls conflict
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cards:    map[int64]stores.Card{},
		progress: map[int64]*stores.Progress{},
	}
}

func (f *fakeStore) addCard(c stores.Card) {
	f.cards[c.ID] = c
	f.order = append(f.order, c.ID)
}

func (f *fakeStore) GetCard(ctx context.Context, id int64) (stores.Card, error) {
	c, ok := f.cards[id]
	if !ok {
		return stores.Card{}, stores.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) GetOrCreateProgress(ctx context.Context, userID, cardID int64) (stores.Progress, error) {
	if p, ok := f.progress[cardID]; ok && p.UserID == userID {
		return *p, nil
	}
	f.nextProgressID++
	p := &stores.Progress{ID: f.nextProgressID, UserID: userID, CardID: cardID}
	f.progress[cardID] = p
	return *p, nil
}

func (f *fakeStore) SaveProgress(ctx context.Context, p stores.Progress, now time.Time) error {
	if f.failSaves > 0 {
		f.failSaves--
		return stores.ErrConflict
	}
	existing, ok := f.progress[p.CardID]
	if !ok || existing.ID != p.ID {
		return stores.ErrConflict
	}
	p.UpdatedAt = now
	f.progress[p.CardID] = &p
	return nil
}

func (f *fakeStore) ListDue(ctx context.Context, arg stores.ListDueParams) ([]stores.CardWithProgress, error) {
	due := []stores.CardWithProgress{}
	for _, id := range f.order {
		p, ok := f.progress[id]
		if ok && p.UserID != arg.UserID {
			ok = false
		}
		if !ok {
			due = append(due, stores.CardWithProgress{Card: f.cards[id]})
			continue
		}
		if !p.NextReview.After(arg.Now) {
			cp := *p
			due = append(due, stores.CardWithProgress{Card: f.cards[id], Progress: &cp})
		}
	}
	// next_review ascending, never-reviewed first
	sort.SliceStable(due, func(i, j int) bool {
		pi, pj := due[i].Progress, due[j].Progress
		if pi == nil {
			return pj != nil
		}
		if pj == nil {
			return false
		}
		return pi.NextReview.Before(pj.NextReview)
	})
	if int32(len(due)) > arg.Limit {
		due = due[:arg.Limit]
	}
	return due, nil
}

func (f *fakeStore) ListAllWithProgress(ctx context.Context, userID int64) ([]stores.CardWithProgress, error) {
	out := []stores.CardWithProgress{}
	for _, id := range f.order {
		cwp := stores.CardWithProgress{Card: f.cards[id]}
		if p, ok := f.progress[id]; ok && p.UserID == userID {
			cp := *p
			cwp.Progress = &cp
		}
		out = append(out, cwp)
	}
	return out, nil
}

func (f *fakeStore) AggregateStats(ctx context.Context, arg stores.AggregateStatsParams) (stores.Stats, error) {
	st := stores.Stats{TotalCards: int64(len(f.cards))}
	days := map[string]bool{}
	for _, p := range f.progress {
		if p.UserID != arg.UserID {
			continue
		}
		st.TotalReviews += int64(p.TotalAttempts)
		st.TotalCorrect += int64(p.CorrectAnswers)
		if !p.LastReviewed.IsZero() && !p.LastReviewed.Before(arg.Since) {
			days[p.LastReviewed.Format(time.DateOnly)] = true
		}
	}
	st.ActiveDays = int64(len(days))
	return st, nil
}

func (f *fakeStore) CreateStudySession(ctx context.Context, arg stores.CreateStudySessionParams) (stores.StudySession, error) {
	s := stores.StudySession{
		ID:             uuid.New(),
		UserID:         arg.UserID,
		SessionType:    arg.SessionType,
		TotalCards:     arg.TotalCards,
		CorrectAnswers: arg.CorrectAnswers,
	}
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeStore) InTx(ctx context.Context, fn func(ps ProgressStore) error) error {
	return fn(f)
}

var testConfig = &config.Config{
	DefaultCardLimit:  10,
	MaxAnswersPerTest: 100,
}

func newTestServer(store Store, now time.Time, seed uint64) *Server {
	s := NewServer(testConfig, store)
	s.Nower = FakeNower{fakenow: now}
	s.Rng = rand.New(rand.NewPCG(seed, seed))
	return s
}

func testTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return ts
}

const subjectID = int64(42)

func TestSelectDueOrdering(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, ForeignWord: "gato", Translation: "cat"})
	f.addCard(stores.Card{ID: 2, ForeignWord: "perro", Translation: "dog"})
	f.addCard(stores.Card{ID: 3, ForeignWord: "pájaro", Translation: "bird"})
	// card 2 was due yesterday, card 3 is due tomorrow, card 1 never reviewed
	f.progress[2] = &stores.Progress{ID: 1, UserID: subjectID, CardID: 2}
	f.progress[2].TotalAttempts = 1
	f.progress[2].NextReview = now.AddDate(0, 0, -1)
	f.progress[3] = &stores.Progress{ID: 2, UserID: subjectID, CardID: 3}
	f.progress[3].TotalAttempts = 1
	f.progress[3].NextReview = now.AddDate(0, 0, 1)

	s := newTestServer(f, now, 1)
	due, err := s.SelectDue(ctx, subjectID, 10)
	is.NoErr(err)
	is.Equal(len(due), 2)
	is.Equal(due[0].Card.ID, int64(1)) // never-reviewed card first
	is.Equal(due[1].Card.ID, int64(2))
}

func TestSelectDueEmptyIsNotAnError(t *testing.T) {
	is := is.New(t)
	now := testTime(t, "2025-06-15T10:00:00Z")
	s := newTestServer(newFakeStore(), now, 1)
	due, err := s.SelectDue(context.Background(), subjectID, 10)
	is.NoErr(err)
	is.Equal(len(due), 0)
}

func TestSelectForTestPrefersUnpracticed(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, ForeignWord: "gato", Translation: "cat"})
	f.addCard(stores.Card{ID: 2, ForeignWord: "perro", Translation: "dog"})
	// card 2 has aged out of the pool entirely (weight 10/16 floors to 0)
	f.progress[2] = &stores.Progress{ID: 1, UserID: subjectID, CardID: 2}
	f.progress[2].TotalAttempts = 15

	s := newTestServer(f, now, 7)
	sample, err := s.SelectForTest(ctx, subjectID, 10)
	is.NoErr(err)
	is.Equal(len(sample), 10) // card 1 fills ten pool slots
	for _, cwp := range sample {
		is.Equal(cwp.Card.ID, int64(1))
	}
}

func TestSelectForTestSeededReproducibility(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	for i := int64(1); i <= 6; i++ {
		f.addCard(stores.Card{ID: i})
	}

	s1 := newTestServer(f, now, 99)
	s2 := newTestServer(f, now, 99)
	a, err := s1.SelectForTest(ctx, subjectID, 5)
	is.NoErr(err)
	b, err := s2.SelectForTest(ctx, subjectID, 5)
	is.NoErr(err)
	is.Equal(len(a), 5)
	for i := range a {
		is.Equal(a[i].Card.ID, b[i].Card.ID)
	}
}

func TestSelectForTestUniformFallback(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	for i := int64(1); i <= 4; i++ {
		f.addCard(stores.Card{ID: i})
		p := &stores.Progress{ID: i, UserID: subjectID, CardID: i}
		p.TotalAttempts = 20
		f.progress[i] = p
	}

	s := newTestServer(f, now, 3)
	sample, err := s.SelectForTest(ctx, subjectID, 10)
	is.NoErr(err)
	// uniform fallback samples distinct cards from the whole catalog
	is.Equal(len(sample), 4)
	seen := map[int64]bool{}
	for _, cwp := range sample {
		is.True(!seen[cwp.Card.ID])
		seen[cwp.Card.ID] = true
	}
}

func TestSelectForTestEmptyCatalog(t *testing.T) {
	is := is.New(t)
	now := testTime(t, "2025-06-15T10:00:00Z")
	s := newTestServer(newFakeStore(), now, 3)
	sample, err := s.SelectForTest(context.Background(), subjectID, 10)
	is.NoErr(err)
	is.Equal(len(sample), 0)
}

func TestGradeSubmission(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, ForeignWord: "gato", Translation: "cat"})
	f.addCard(stores.Card{ID: 2, ForeignWord: "perro", Translation: "dog"})
	f.addCard(stores.Card{ID: 3, ForeignWord: "pájaro", Translation: "bird"})

	s := newTestServer(f, now, 1)
	res, err := s.GradeSubmission(ctx, subjectID, []Answer{
		{CardID: 1, UserAnswer: "  CAT "}, // whitespace and case ignored
		{CardID: 2, UserAnswer: "dog"},
		{CardID: 3, UserAnswer: "fish"},   // wrong
		{CardID: 99, UserAnswer: "ghost"}, // unknown card, silently skipped
	})
	is.NoErr(err)
	is.Equal(res.TotalQuestions, 4)
	is.Equal(res.CorrectAnswers, 2)
	is.Equal(res.ScorePercentage, 50.0)

	// progress advanced for the three real cards only
	is.Equal(len(f.progress), 3)
	is.Equal(f.progress[1].CorrectAnswers, 1)
	is.Equal(f.progress[1].TotalAttempts, 1)
	is.Equal(f.progress[1].NextReview, now.AddDate(0, 0, 2))
	is.Equal(f.progress[3].CorrectAnswers, 0)
	is.Equal(f.progress[3].NextReview, now.AddDate(0, 0, 1))

	// a session was recorded and its id returned
	is.Equal(len(f.sessions), 1)
	is.Equal(f.sessions[0].ID, res.SessionID)
	is.Equal(f.sessions[0].TotalCards, int32(4))
}

func TestGradeSubmissionScoreArithmetic(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "one"})
	f.addCard(stores.Card{ID: 2, Translation: "two"})
	f.addCard(stores.Card{ID: 3, Translation: "three"})

	s := newTestServer(f, now, 1)
	res, err := s.GradeSubmission(ctx, subjectID, []Answer{
		{CardID: 1, UserAnswer: "one"},
		{CardID: 2, UserAnswer: "two"},
		{CardID: 3, UserAnswer: "three"},
		{CardID: 99, UserAnswer: "four"},
	})
	is.NoErr(err)
	is.Equal(res.TotalQuestions, 4)
	is.Equal(res.CorrectAnswers, 3)
	is.Equal(res.ScorePercentage, 75.0)
}

func TestGradeSubmissionRetriesOnConflict(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "cat"})
	f.failSaves = 1

	s := newTestServer(f, now, 1)
	res, err := s.GradeSubmission(ctx, subjectID, []Answer{{CardID: 1, UserAnswer: "cat"}})
	is.NoErr(err)
	is.Equal(res.CorrectAnswers, 1)
	// retried update applied exactly once
	is.Equal(f.progress[1].TotalAttempts, 1)
}

func TestGradeSubmissionPersistentConflictSurfaces(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "cat"})
	f.failSaves = 2

	s := newTestServer(f, now, 1)
	_, err := s.GradeSubmission(ctx, subjectID, []Answer{{CardID: 1, UserAnswer: "cat"}})
	is.True(err != nil)
}

func TestGradeSubmissionEmpty(t *testing.T) {
	is := is.New(t)
	now := testTime(t, "2025-06-15T10:00:00Z")
	f := newFakeStore()
	s := newTestServer(f, now, 1)
	res, err := s.GradeSubmission(context.Background(), subjectID, nil)
	is.NoErr(err)
	is.Equal(res.TotalQuestions, 0)
	is.Equal(res.ScorePercentage, 0.0)
	is.Equal(len(f.sessions), 0)
}

func TestGradeSubmissionTooManyAnswers(t *testing.T) {
	is := is.New(t)
	now := testTime(t, "2025-06-15T10:00:00Z")
	s := newTestServer(newFakeStore(), now, 1)

	answers := make([]Answer, testConfig.MaxAnswersPerTest+1)
	_, err := s.GradeSubmission(context.Background(), subjectID, answers)
	var verr ValidationError
	is.True(errors.As(err, &verr))
}

func TestRepeatedCorrectAnswersStretchInterval(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "cat"})
	s := newTestServer(f, now, 1)

	expected := []int{2, 4, 8, 16, 30, 30}
	for _, days := range expected {
		s.Nower = FakeNower{fakenow: now}
		_, err := s.GradeSubmission(ctx, subjectID, []Answer{{CardID: 1, UserAnswer: "cat"}})
		is.NoErr(err)
		is.Equal(f.progress[1].NextReview, now.AddDate(0, 0, days))
		now = f.progress[1].NextReview
	}
}

func TestStatsZeroReviews(t *testing.T) {
	is := is.New(t)
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "cat"})

	s := newTestServer(f, now, 1)
	st, err := s.Stats(context.Background(), subjectID)
	is.NoErr(err)
	is.Equal(st.TotalCards, int64(1))
	is.Equal(st.TotalReviews, int64(0))
	is.Equal(st.AverageScore, 0.0) // no division by zero
	is.Equal(st.StreakDays, int64(0))
}

func TestStatsAggregation(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	now := testTime(t, "2025-06-15T10:00:00Z")

	f := newFakeStore()
	f.addCard(stores.Card{ID: 1, Translation: "cat"})
	f.addCard(stores.Card{ID: 2, Translation: "dog"})
	s := newTestServer(f, now, 1)

	_, err := s.GradeSubmission(ctx, subjectID, []Answer{
		{CardID: 1, UserAnswer: "cat"},
		{CardID: 1, UserAnswer: "wrong"},
	})
	is.NoErr(err)
	// next day, a different card, so both days stay visible in last_reviewed
	s.Nower = FakeNower{fakenow: now.AddDate(0, 0, 1)}
	_, err = s.GradeSubmission(ctx, subjectID, []Answer{
		{CardID: 2, UserAnswer: "dog"},
		{CardID: 2, UserAnswer: "dog"},
	})
	is.NoErr(err)

	st, err := s.Stats(ctx, subjectID)
	is.NoErr(err)
	is.Equal(st.TotalCards, int64(2))
	is.Equal(st.TotalReviews, int64(4))
	is.Equal(st.AverageScore, 75.0)
	is.Equal(st.StreakDays, int64(2))
}
