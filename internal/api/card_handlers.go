package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/avelichko/lexicards/internal/stores"
)

const defaultCardPageSize = 100

func (s *Service) handleListCards(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	skip := queryInt(c, "skip", 0)
	limit := queryInt(c, "limit", defaultCardPageSize)

	ctx := c.Request().Context()
	cards, err := s.Cards.ListCards(ctx, stores.ListCardsParams{
		Skip:  int32(skip),
		Limit: int32(limit),
	})
	if err != nil {
		return httpError(err)
	}

	out := make([]CardResponse, len(cards))
	for i, card := range cards {
		progress, err := s.Cards.GetProgress(ctx, user.DBID, card.ID)
		if err != nil && !errors.Is(err, stores.ErrNotFound) {
			return err
		}
		if errors.Is(err, stores.ErrNotFound) {
			out[i] = toCardResponse(card, nil)
		} else {
			out[i] = toCardResponse(card, &progress)
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Service) handleGetCard(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	card, err := s.Cards.GetCard(ctx, id)
	if err != nil {
		return httpError(err)
	}
	progress, err := s.Cards.GetProgress(ctx, user.DBID, card.ID)
	if err != nil {
		if !errors.Is(err, stores.ErrNotFound) {
			return err
		}
		return c.JSON(http.StatusOK, toCardResponse(card, nil))
	}
	return c.JSON(http.StatusOK, toCardResponse(card, &progress))
}

func (s *Service) handleCreateCard(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	var req CreateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if req.Language == "" {
		req.Language = "english"
	}
	if req.DifficultyLevel == 0 {
		req.DifficultyLevel = 1
	}

	card, err := s.Cards.CreateCard(c.Request().Context(), stores.CreateCardParams{
		ForeignWord:     req.ForeignWord,
		Translation:     req.Translation,
		ExampleSentence: req.ExampleSentence,
		Language:        req.Language,
		DifficultyLevel: req.DifficultyLevel,
		CreatedBy:       user.DBID,
	})
	if err != nil {
		return httpError(err)
	}
	log.Info().Int64("cardID", card.ID).Str("word", card.ForeignWord).Msg("card-created")
	return c.JSON(http.StatusCreated, toCardResponse(card, nil))
}

func (s *Service) handleUpdateCard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req UpdateCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	card, err := s.Cards.UpdateCard(c.Request().Context(), stores.UpdateCardParams{
		ID:              id,
		ForeignWord:     req.ForeignWord,
		Translation:     req.Translation,
		ExampleSentence: req.ExampleSentence,
		Language:        req.Language,
		DifficultyLevel: req.DifficultyLevel,
	}, s.Nower.Now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toCardResponse(card, nil))
}

func (s *Service) handleDeleteCard(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.Cards.DeleteCard(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid card id")
	}
	return id, nil
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
