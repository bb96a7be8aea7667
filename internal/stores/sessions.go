package stores

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type CreateStudySessionParams struct {
	UserID         int64
	SessionType    string
	TotalCards     int32
	CorrectAnswers int32
}

func (q *Queries) CreateStudySession(ctx context.Context, arg CreateStudySessionParams) (StudySession, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return StudySession{}, errors.Wrap(err, "session id")
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO study_sessions (id, user_id, session_type, total_cards, correct_answers)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, session_type, total_cards, correct_answers, completed_at`,
		id, arg.UserID, arg.SessionType, arg.TotalCards, arg.CorrectAnswers)

	var s StudySession
	err = row.Scan(&s.ID, &s.UserID, &s.SessionType, &s.TotalCards, &s.CorrectAnswers, &s.CompletedAt)
	if err != nil {
		return StudySession{}, errors.Wrap(err, "scan session")
	}
	return s, nil
}
