// Package api exposes the service over HTTP. Handlers stay thin: they bind
// and validate payloads, resolve the authenticated user, and delegate to the
// study engine and the stores.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/avelichko/lexicards/config"
	"github.com/avelichko/lexicards/internal/auth"
	"github.com/avelichko/lexicards/internal/stores"
	"github.com/avelichko/lexicards/internal/study"
)

type nower interface {
	Now() time.Time
}

type RealNower struct{}

func (r RealNower) Now() time.Time {
	return time.Now()
}

// UserStore is the slice of the persistence layer the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, arg stores.CreateUserParams) (stores.User, error)
	GetUser(ctx context.Context, id int64) (stores.User, error)
	GetUserByUsername(ctx context.Context, username string) (stores.User, error)
	GetUserByEmail(ctx context.Context, email string) (stores.User, error)
}

// CardStore is the slice of the persistence layer the catalog handlers need.
type CardStore interface {
	CreateCard(ctx context.Context, arg stores.CreateCardParams) (stores.Card, error)
	GetCard(ctx context.Context, id int64) (stores.Card, error)
	ListCards(ctx context.Context, arg stores.ListCardsParams) ([]stores.Card, error)
	UpdateCard(ctx context.Context, arg stores.UpdateCardParams, now time.Time) (stores.Card, error)
	DeleteCard(ctx context.Context, id int64) error
	GetProgress(ctx context.Context, userID, cardID int64) (stores.Progress, error)
}

// StudyService is the review/test engine surface consumed by the progress
// handlers.
type StudyService interface {
	SelectDue(ctx context.Context, subjectID int64, limit int32) ([]stores.CardWithProgress, error)
	SelectForTest(ctx context.Context, subjectID int64, limit int) ([]stores.CardWithProgress, error)
	GradeSubmission(ctx context.Context, subjectID int64, answers []study.Answer) (study.TestResult, error)
	Stats(ctx context.Context, subjectID int64) (study.ProgressStats, error)
}

type Service struct {
	Config *config.Config
	Users  UserStore
	Cards  CardStore
	Study  StudyService
	Nower  nower
}

func NewService(cfg *config.Config, store *stores.Store, studyServer *study.Server) *Service {
	return &Service{
		Config: cfg,
		Users:  store,
		Cards:  store,
		Study:  studyServer,
		Nower:  RealNower{},
	}
}

// Register wires all routes onto the echo instance.
func (s *Service) Register(e *echo.Echo) {
	e.Validator = &requestValidator{validate: validator.New()}

	secret := []byte(s.Config.SecretKey)
	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", s.handleRegister)
	authGroup.POST("/login", s.handleLogin)
	authGroup.GET("/me", s.handleMe, auth.RequireAuth(secret))

	cards := api.Group("/cards", auth.RequireAuth(secret))
	cards.GET("", s.handleListCards)
	cards.GET("/:id", s.handleGetCard)
	cards.POST("", s.handleCreateCard, auth.RequireAdmin())
	cards.PUT("/:id", s.handleUpdateCard, auth.RequireAdmin())
	cards.DELETE("/:id", s.handleDeleteCard, auth.RequireAdmin())

	progress := api.Group("/progress", auth.RequireAuth(secret))
	progress.GET("", s.handleStats)
	progress.GET("/review", s.handleReviewCards)
	progress.GET("/test", s.handleTestCards)
	progress.POST("/test", s.handleSubmitTest)
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// httpError translates store and engine errors into HTTP responses.
// Anything unrecognized falls through to echo's generic 500 handling.
func httpError(err error) error {
	switch {
	case errors.Is(err, stores.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, stores.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "conflicting update")
	}
	var verr study.ValidationError
	if errors.As(err, &verr) {
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	}
	return err
}

// subject resolves the authenticated user set by the auth middleware.
func subject(c echo.Context) (*auth.AuthedUser, error) {
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	}
	return user, nil
}
