package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler exposes the login and token-refresh endpoints.
type Handler struct {
	store  Store
	secret string
}

func NewHandler(store Store, secret string) *Handler {
	return &Handler{store: store, secret: secret}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
	api.POST("/auth/refresh", h.Refresh)
	api.POST("/auth/logout", h.Logout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	ctx := c.Request().Context()
	// Piggyback cleanup of expired refresh tokens on login; best effort.
	_ = h.store.DeleteExpiredRefreshTokens(ctx, time.Now())

	account, err := h.store.GetAccountByEmail(ctx, req.Email)
	if err != nil || !CheckPassword(account.PasswordHash, req.Password) {
		// same response for unknown email and wrong password
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	access, err := MakeAccessToken(account.ID.String(), h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	if err := h.store.SaveRefreshToken(ctx, &RefreshToken{
		Hash:      hash,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist token")
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	ctx := c.Request().Context()
	stored, err := h.store.GetRefreshToken(ctx, HashRefreshToken(req.RefreshToken))
	if err != nil || time.Now().After(stored.ExpiresAt) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	// Rotate: the presented token is single-use.
	if err := h.store.DeleteRefreshToken(ctx, stored.Hash); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to rotate token")
	}

	access, err := MakeAccessToken(stored.AccountID.String(), h.secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	raw, hash, err := GenerateRefreshToken()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	if err := h.store.SaveRefreshToken(ctx, &RefreshToken{
		Hash:      hash,
		AccountID: stored.AccountID,
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist token")
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	})
}

func (h *Handler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.RefreshToken != "" {
		_ = h.store.DeleteRefreshToken(c.Request().Context(), HashRefreshToken(req.RefreshToken))
	}
	return c.NoContent(http.StatusNoContent)
}
