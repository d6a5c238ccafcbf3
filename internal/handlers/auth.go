package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/skvorcov/blog_backend/internal/auth"
	"github.com/skvorcov/blog_backend/internal/hash"
	"github.com/skvorcov/blog_backend/internal/logging"
	"github.com/skvorcov/blog_backend/internal/models"
	"github.com/skvorcov/blog_backend/internal/mykafka"
	"github.com/skvorcov/blog_backend/internal/repo"
	"github.com/skvorcov/blog_backend/internal/tokens"
)

type AuthHandler struct {
	Users         *repo.UserRepo
	RefreshTokens *repo.RefreshRepo
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Producer      *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         "user",
	}

	if err := h.Users.CreateIfNotExists(c.Request().Context(), &user); err != nil {
		if errors.Is(err, repo.ErrAlreadyExist) {
			return echo.NewHTTPError(http.StatusConflict, "user already exists")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot create user")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Unknown email and wrong password answer identically: the
	// response must not confirm whether an account exists.
	user, err := h.Users.ByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return auth.HTTPError(auth.ErrInvalidCredentials)
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot verify credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return auth.HTTPError(auth.ErrInvalidCredentials)
	}

	pair, err := h.issuePair(c.Request().Context(), user)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("token issue failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue tokens")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	claims, err := tokens.RefreshClaimsFromToken(req.RefreshToken, h.RefreshSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	if _, err := h.RefreshTokens.CheckActive(c.Request().Context(), claims.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) || errors.Is(err, repo.ErrTokenRevoked) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot verify refresh token")
	}

	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := h.Users.ByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot verify refresh token")
	}

	// Rotation: the presented token is revoked before the new pair
	// is issued.
	if err := h.RefreshTokens.RevokeByJTI(c.Request().Context(), claims.ID); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot rotate refresh token")
	}

	pair, err := h.issuePair(c.Request().Context(), user)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("token issue failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot issue tokens")
	}

	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.RefreshTokens.RevokeByToken(c.Request().Context(), req.RefreshToken); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cannot revoke refresh token")
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) issuePair(ctx context.Context, user *models.User) (*tokenPair, error) {
	accessToken, err := tokens.SignAccessToken(user.ID, user.Email, user.Role, h.AccessSecret, h.AccessTTL)
	if err != nil {
		return nil, err
	}

	jti := uuid.NewString()
	refreshToken, err := tokens.SignRefreshToken(user.ID, jti, h.RefreshSecret, h.RefreshTTL)
	if err != nil {
		return nil, err
	}

	if err := h.RefreshTokens.Save(ctx, refreshToken, jti, user.ID, time.Now().Add(h.RefreshTTL)); err != nil {
		return nil, err
	}

	return &tokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
