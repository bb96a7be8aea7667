package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/avelichko/lexicards/internal/study"
)

func (s *Service) handleStats(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	stats, err := s.Study.Stats(c.Request().Context(), user.DBID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Service) handleReviewCards(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	limit := queryInt(c, "limit", s.Config.DefaultCardLimit)

	cards, err := s.Study.SelectDue(c.Request().Context(), user.DBID, int32(limit))
	if err != nil {
		return httpError(err)
	}
	if len(cards) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no cards need review today")
	}
	return c.JSON(http.StatusOK, toCardResponses(cards))
}

func (s *Service) handleTestCards(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	limit := queryInt(c, "limit", s.Config.DefaultCardLimit)

	cards, err := s.Study.SelectForTest(c.Request().Context(), user.DBID, limit)
	if err != nil {
		return httpError(err)
	}
	if len(cards) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "no cards available for testing")
	}
	return c.JSON(http.StatusOK, toCardResponses(cards))
}

func (s *Service) handleSubmitTest(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	var req TestSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	answers := make([]study.Answer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = study.Answer{CardID: a.CardID, UserAnswer: a.UserAnswer}
	}

	result, err := s.Study.GradeSubmission(c.Request().Context(), user.DBID, answers)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, TestResultResponse{
		SessionID:       result.SessionID,
		TotalQuestions:  result.TotalQuestions,
		CorrectAnswers:  result.CorrectAnswers,
		ScorePercentage: result.ScorePercentage,
	})
}
