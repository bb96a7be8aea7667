package stores

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
)

const progressColumns = `id, user_id, card_id, correct_answers, total_attempts, last_reviewed, next_review, created_at, updated_at`

const (
	joinedCardColumns     = `c.id, c.foreign_word, c.translation, c.example_sentence, c.language, c.difficulty_level, c.created_by, c.created_at, c.updated_at`
	joinedProgressColumns = `p.id, p.user_id, p.card_id, p.correct_answers, p.total_attempts, p.last_reviewed, p.next_review, p.created_at, p.updated_at`
)

// GetOrCreateProgress returns the user's mastery record for a card, creating
// a zeroed one if none exists yet. The insert-on-conflict-do-nothing followed
// by a re-select keeps this safe under concurrent first access: the unique
// (user_id, card_id) constraint guarantees at most one row ever exists. The
// re-select takes a row lock, so inside a transaction concurrent
// read-modify-writes of the same record are serialized and no update is lost.
func (q *Queries) GetOrCreateProgress(ctx context.Context, userID, cardID int64) (Progress, error) {
	_, err := q.db.Exec(ctx, `
		INSERT INTO card_progress (user_id, card_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, card_id) DO NOTHING`,
		userID, cardID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "upsert progress")
	}
	row := q.db.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2
		FOR UPDATE`,
		userID, cardID)
	return scanProgress(row)
}

func (q *Queries) GetProgress(ctx context.Context, userID, cardID int64) (Progress, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+progressColumns+`
		FROM card_progress
		WHERE user_id = $1 AND card_id = $2`,
		userID, cardID)
	return scanProgress(row)
}

// SaveProgress persists an updated mastery record. ErrConflict is returned
// if the row disappeared, which happens when the card or user was deleted
// concurrently.
func (q *Queries) SaveProgress(ctx context.Context, p Progress, now time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE card_progress SET
			correct_answers = $2,
			total_attempts = $3,
			last_reviewed = $4,
			next_review = $5,
			updated_at = $6
		WHERE id = $1`,
		p.ID, p.CorrectAnswers, p.TotalAttempts,
		toPGTimestamp(p.LastReviewed), toPGTimestamp(p.NextReview), toPGTimestamp(now))
	if err != nil {
		return errors.Wrap(err, "save progress")
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

type ListDueParams struct {
	UserID int64
	Now    time.Time
	Limit  int32
}

// ListDue returns cards the user should review now: cards with no scheduled
// review yet (no record, or a record that has never been through one), or
// whose next review has passed. Unscheduled cards sort first, then by next
// review ascending.
func (q *Queries) ListDue(ctx context.Context, arg ListDueParams) ([]CardWithProgress, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+joinedCardColumns+`, `+joinedProgressColumns+`
		FROM cards c
		LEFT JOIN card_progress p ON p.card_id = c.id AND p.user_id = $1
		WHERE p.next_review IS NULL OR p.next_review <= $2
		ORDER BY p.next_review ASC NULLS FIRST
		LIMIT $3`,
		arg.UserID, toPGTimestamp(arg.Now), arg.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list due")
	}
	defer rows.Close()
	return collectCardsWithProgress(rows)
}

// ListAllWithProgress returns every catalog card paired with the user's
// mastery record where one exists.
func (q *Queries) ListAllWithProgress(ctx context.Context, userID int64) ([]CardWithProgress, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+joinedCardColumns+`, `+joinedProgressColumns+`
		FROM cards c
		LEFT JOIN card_progress p ON p.card_id = c.id AND p.user_id = $1
		ORDER BY c.created_at DESC`,
		userID)
	if err != nil {
		return nil, errors.Wrap(err, "list all with progress")
	}
	defer rows.Close()
	return collectCardsWithProgress(rows)
}

type AggregateStatsParams struct {
	UserID int64
	Since  time.Time
}

// AggregateStats gathers the raw counters behind the user's progress page:
// catalog size, lifetime review and correct totals, and the number of
// distinct days with at least one review since the given cutoff.
func (q *Queries) AggregateStats(ctx context.Context, arg AggregateStatsParams) (Stats, error) {
	var st Stats
	err := q.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM cards),
			COALESCE(SUM(p.total_attempts), 0),
			COALESCE(SUM(p.correct_answers), 0),
			COUNT(DISTINCT DATE(p.last_reviewed)) FILTER (WHERE p.last_reviewed >= $2)
		FROM card_progress p
		WHERE p.user_id = $1`,
		arg.UserID, toPGTimestamp(arg.Since)).
		Scan(&st.TotalCards, &st.TotalReviews, &st.TotalCorrect, &st.ActiveDays)
	if err != nil {
		return Stats{}, errors.Wrap(err, "aggregate stats")
	}
	return st, nil
}

func scanProgress(row pgx.Row) (Progress, error) {
	var (
		p            Progress
		lastReviewed pgtype.Timestamptz
		nextReview   pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)
	err := row.Scan(&p.ID, &p.UserID, &p.CardID, &p.CorrectAnswers, &p.TotalAttempts,
		&lastReviewed, &nextReview, &p.CreatedAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Progress{}, ErrNotFound
	}
	if err != nil {
		return Progress{}, errors.Wrap(err, "scan progress")
	}
	p.LastReviewed = fromPGTimestamp(lastReviewed)
	p.NextReview = fromPGTimestamp(nextReview)
	p.UpdatedAt = fromPGTimestamp(updatedAt)
	return p, nil
}

func collectCardsWithProgress(rows pgx.Rows) ([]CardWithProgress, error) {
	out := []CardWithProgress{}
	for rows.Next() {
		var (
			c              Card
			example        pgtype.Text
			cardUpdatedAt  pgtype.Timestamptz
			pID            pgtype.Int8
			pUserID        pgtype.Int8
			pCardID        pgtype.Int8
			correctAnswers pgtype.Int4
			totalAttempts  pgtype.Int4
			lastReviewed   pgtype.Timestamptz
			nextReview     pgtype.Timestamptz
			pCreatedAt     pgtype.Timestamptz
			pUpdatedAt     pgtype.Timestamptz
		)
		err := rows.Scan(
			&c.ID, &c.ForeignWord, &c.Translation, &example, &c.Language,
			&c.DifficultyLevel, &c.CreatedBy, &c.CreatedAt, &cardUpdatedAt,
			&pID, &pUserID, &pCardID, &correctAnswers, &totalAttempts,
			&lastReviewed, &nextReview, &pCreatedAt, &pUpdatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan card with progress")
		}
		c.ExampleSentence = example.String
		c.UpdatedAt = fromPGTimestamp(cardUpdatedAt)

		cwp := CardWithProgress{Card: c}
		if pID.Valid {
			p := Progress{
				ID:        pID.Int64,
				UserID:    pUserID.Int64,
				CardID:    pCardID.Int64,
				CreatedAt: fromPGTimestamp(pCreatedAt),
				UpdatedAt: fromPGTimestamp(pUpdatedAt),
			}
			p.CorrectAnswers = int(correctAnswers.Int32)
			p.TotalAttempts = int(totalAttempts.Int32)
			p.LastReviewed = fromPGTimestamp(lastReviewed)
			p.NextReview = fromPGTimestamp(nextReview)
			cwp.Progress = &p
		}
		out = append(out, cwp)
	}
	return out, rows.Err()
}
