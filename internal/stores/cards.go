package stores

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
)

const cardColumns = `id, foreign_word, translation, example_sentence, language, difficulty_level, created_by, created_at, updated_at`

type CreateCardParams struct {
	ForeignWord     string
	Translation     string
	ExampleSentence string
	Language        string
	DifficultyLevel int32
	CreatedBy       int64
}

func (q *Queries) CreateCard(ctx context.Context, arg CreateCardParams) (Card, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO cards (foreign_word, translation, example_sentence, language, difficulty_level, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+cardColumns,
		arg.ForeignWord, arg.Translation, toPGText(arg.ExampleSentence),
		arg.Language, arg.DifficultyLevel, arg.CreatedBy)
	return scanCard(row)
}

func (q *Queries) GetCard(ctx context.Context, id int64) (Card, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	return scanCard(row)
}

type ListCardsParams struct {
	Skip  int32
	Limit int32
}

func (q *Queries) ListCards(ctx context.Context, arg ListCardsParams) ([]Card, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+cardColumns+`
		FROM cards
		ORDER BY created_at DESC
		OFFSET $1 LIMIT $2`,
		arg.Skip, arg.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "list cards")
	}
	defer rows.Close()

	cards := []Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// UpdateCardParams is an explicit optional-field merge: nil fields are left
// untouched by the update.
type UpdateCardParams struct {
	ID              int64
	ForeignWord     *string
	Translation     *string
	ExampleSentence *string
	Language        *string
	DifficultyLevel *int32
}

func (q *Queries) UpdateCard(ctx context.Context, arg UpdateCardParams, now time.Time) (Card, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE cards SET
			foreign_word = COALESCE($2, foreign_word),
			translation = COALESCE($3, translation),
			example_sentence = COALESCE($4, example_sentence),
			language = COALESCE($5, language),
			difficulty_level = COALESCE($6, difficulty_level),
			updated_at = $7
		WHERE id = $1
		RETURNING `+cardColumns,
		arg.ID, arg.ForeignWord, arg.Translation, arg.ExampleSentence,
		arg.Language, arg.DifficultyLevel, toPGTimestamp(now))
	return scanCard(row)
}

func (q *Queries) DeleteCard(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete card")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCard(row pgx.Row) (Card, error) {
	var (
		c         Card
		example   pgtype.Text
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&c.ID, &c.ForeignWord, &c.Translation, &example, &c.Language,
		&c.DifficultyLevel, &c.CreatedBy, &c.CreatedAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, ErrNotFound
	}
	if err != nil {
		return Card{}, errors.Wrap(err, "scan card")
	}
	c.ExampleSentence = example.String
	c.UpdatedAt = fromPGTimestamp(updatedAt)
	return c, nil
}
