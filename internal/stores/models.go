package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/lexicards/internal/srs"
)

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	IsAdmin        bool      `json:"is_admin"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

type Card struct {
	ID              int64     `json:"id"`
	ForeignWord     string    `json:"foreign_word"`
	Translation     string    `json:"translation"`
	ExampleSentence string    `json:"example_sentence,omitempty"`
	Language        string    `json:"language"`
	DifficultyLevel int32     `json:"difficulty_level"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Progress is one user's mastery record for one card. The scheduling state
// lives in the embedded srs.Record; rows are unique per (user, card).
type Progress struct {
	ID     int64 `json:"-"`
	UserID int64 `json:"-"`
	CardID int64 `json:"-"`
	srs.Record
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// CardWithProgress pairs a catalog card with the requesting user's progress,
// if any exists yet.
type CardWithProgress struct {
	Card     Card
	Progress *Progress
}

type StudySession struct {
	ID             uuid.UUID `json:"id"`
	UserID         int64     `json:"user_id"`
	SessionType    string    `json:"session_type"`
	TotalCards     int32     `json:"total_cards"`
	CorrectAnswers int32     `json:"correct_answers"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Stats are the raw per-user aggregates; derived values like the average
// score are computed by the study layer.
type Stats struct {
	TotalCards   int64
	TotalReviews int64
	TotalCorrect int64
	ActiveDays   int64
}
