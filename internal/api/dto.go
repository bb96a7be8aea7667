package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/avelichko/lexicards/internal/stores"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u stores.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type CreateCardRequest struct {
	ForeignWord     string `json:"foreign_word" validate:"required"`
	Translation     string `json:"translation" validate:"required"`
	ExampleSentence string `json:"example_sentence"`
	Language        string `json:"language"`
	DifficultyLevel int32  `json:"difficulty_level" validate:"omitempty,min=1,max=5"`
}

// UpdateCardRequest carries only the fields being changed; absent fields
// are left untouched.
type UpdateCardRequest struct {
	ForeignWord     *string `json:"foreign_word"`
	Translation     *string `json:"translation"`
	ExampleSentence *string `json:"example_sentence"`
	Language        *string `json:"language"`
	DifficultyLevel *int32  `json:"difficulty_level" validate:"omitempty,min=1,max=5"`
}

type ProgressInfo struct {
	CorrectAnswers int        `json:"correct_answers"`
	TotalAttempts  int        `json:"total_attempts"`
	LastReviewed   *time.Time `json:"last_reviewed"`
	NextReview     *time.Time `json:"next_review"`
}

type CardResponse struct {
	stores.Card
	UserProgress *ProgressInfo `json:"user_progress,omitempty"`
}

func toCardResponse(c stores.Card, p *stores.Progress) CardResponse {
	resp := CardResponse{Card: c}
	if p != nil {
		info := &ProgressInfo{
			CorrectAnswers: p.CorrectAnswers,
			TotalAttempts:  p.TotalAttempts,
		}
		// a lazily created record has no review timestamps yet
		if p.Reviewed() {
			info.LastReviewed = &p.LastReviewed
			info.NextReview = &p.NextReview
		}
		resp.UserProgress = info
	}
	return resp
}

func toCardResponses(cards []stores.CardWithProgress) []CardResponse {
	out := make([]CardResponse, len(cards))
	for i, cwp := range cards {
		out[i] = toCardResponse(cwp.Card, cwp.Progress)
	}
	return out
}

type AnswerRequest struct {
	CardID     int64  `json:"card_id" validate:"required"`
	UserAnswer string `json:"user_answer"`
}

type TestSubmissionRequest struct {
	Answers []AnswerRequest `json:"answers" validate:"required,min=1,dive"`
}

type TestResultResponse struct {
	SessionID       uuid.UUID `json:"session_id"`
	TotalQuestions  int       `json:"total_questions"`
	CorrectAnswers  int       `json:"correct_answers"`
	ScorePercentage float64   `json:"score_percentage"`
}
