package study

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/avelichko/lexicards/internal/srs"
	"github.com/avelichko/lexicards/internal/stores"
)

type Answer struct {
	CardID     int64
	UserAnswer string
}

type TestResult struct {
	SessionID       uuid.UUID
	TotalQuestions  int
	CorrectAnswers  int
	ScorePercentage float64
}

// GradeSubmission grades each submitted answer against the card's canonical
// translation, advances the card's scheduling state, and records a study
// session. Answers referencing unknown cards are skipped but still count
// toward the total, so the score reflects the size of the submission.
func (s *Server) GradeSubmission(ctx context.Context, subjectID int64, answers []Answer) (TestResult, error) {
	if len(answers) == 0 {
		return TestResult{}, nil
	}
	if len(answers) > s.Config.MaxAnswersPerTest {
		return TestResult{}, ValidationError(fmt.Sprintf(
			"cannot submit more than %d answers at a time", s.Config.MaxAnswersPerTest))
	}
	log := log.Ctx(ctx)
	now := s.Nower.Now()

	correct := 0
	for _, ans := range answers {
		card, err := s.Store.GetCard(ctx, ans.CardID)
		if err != nil {
			if errors.Is(err, stores.ErrNotFound) {
				log.Debug().Int64("cardID", ans.CardID).Msg("skipping-unknown-card")
				continue
			}
			return TestResult{}, err
		}
		isCorrect := answerMatches(ans.UserAnswer, card.Translation)
		if isCorrect {
			correct++
		}
		if err := s.scoreCard(ctx, subjectID, card.ID, isCorrect, now); err != nil {
			return TestResult{}, err
		}
	}

	total := len(answers)
	score := round2(100 * float64(correct) / float64(total))

	sess, err := s.Store.CreateStudySession(ctx, stores.CreateStudySessionParams{
		UserID:         subjectID,
		SessionType:    "test",
		TotalCards:     int32(total),
		CorrectAnswers: int32(correct),
	})
	if err != nil {
		return TestResult{}, err
	}

	log.Info().Int64("subjectID", subjectID).
		Int("total", total).Int("correct", correct).
		Float64("score", score).
		Str("session", sess.ID.String()).Msg("test-graded")

	return TestResult{
		SessionID:       sess.ID,
		TotalQuestions:  total,
		CorrectAnswers:  correct,
		ScorePercentage: score,
	}, nil
}

// scoreCard applies one answer to one card as an atomic read-modify-write.
// A conflicting concurrent update is retried once before surfacing.
func (s *Server) scoreCard(ctx context.Context, subjectID, cardID int64, isCorrect bool, now time.Time) error {
	update := func() error {
		return s.Store.InTx(ctx, func(ps ProgressStore) error {
			p, err := ps.GetOrCreateProgress(ctx, subjectID, cardID)
			if err != nil {
				return err
			}
			p.Record = srs.Advance(p.Record, isCorrect, now)
			return ps.SaveProgress(ctx, p, now)
		})
	}
	err := update()
	if errors.Is(err, stores.ErrConflict) {
		err = update()
	}
	return err
}

// answerMatches compares an answer to the canonical translation ignoring
// case and surrounding whitespace.
func answerMatches(answer, translation string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(translation))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
