package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/avelichko/lexicards/internal/auth"
	"github.com/avelichko/lexicards/internal/stores"
)

func (s *Service) handleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	if _, err := s.Users.GetUserByUsername(ctx, req.Username); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "username already registered")
	} else if !errors.Is(err, stores.ErrNotFound) {
		return err
	}
	if _, err := s.Users.GetUserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
	} else if !errors.Is(err, stores.ErrNotFound) {
		return err
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	user, err := s.Users.CreateUser(ctx, stores.CreateUserParams{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hashed,
	})
	if err != nil {
		// A concurrent registration can still beat us to the unique
		// constraint despite the checks above.
		if errors.Is(err, stores.ErrConflict) {
			return echo.NewHTTPError(http.StatusBadRequest, "username or email already registered")
		}
		return err
	}
	log.Info().Str("username", user.Username).Msg("user-registered")
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

func (s *Service) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := s.Users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, stores.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
		}
		return err
	}
	if !auth.CheckPassword(req.Password, user.HashedPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "incorrect username or password")
	}
	if !user.IsActive {
		return echo.NewHTTPError(http.StatusBadRequest, "inactive user")
	}

	token, err := auth.CreateToken([]byte(s.Config.SecretKey), user.ID, user.Username,
		user.IsAdmin, s.Config.TokenExpiry, s.Nower.Now())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.Config.TokenExpiry.Seconds()),
	})
}

func (s *Service) handleMe(c echo.Context) error {
	user, err := subject(c)
	if err != nil {
		return err
	}
	dbUser, err := s.Users.GetUser(c.Request().Context(), user.DBID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toUserResponse(dbUser))
}
