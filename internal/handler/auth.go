package handler

import (
    "context"  // provides context with cancellation for DB calls
    "errors"   // sentinel comparisons
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/provider-sync/internal/config"     // app configuration
    "github.com/iliyamo/provider-sync/internal/model"      // provider account type
    "github.com/iliyamo/provider-sync/internal/repository" // sentinel errors
    "github.com/iliyamo/provider-sync/internal/utils"      // hashing and token issuing
)

// ProviderAccounts looks up provider accounts.
type ProviderAccounts interface {
    GetByEmail(ctx context.Context, email string) (model.Provider, error)
    GetByID(ctx context.Context, id uint64) (model.Provider, error)
}

// RefreshTokens stores hashed refresh tokens.
type RefreshTokens interface {
    StoreRefresh(ctx context.Context, providerID uint64, tokenHash string, exp time.Time) error
    ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
    RevokeByHash(ctx context.Context, tokenHash string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg       config.Config
    Providers ProviderAccounts
    Tokens    RefreshTokens
}

func NewAuthHandler(cfg config.Config, p ProviderAccounts, t RefreshTokens) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Providers: p, Tokens: t}
}

// ----- DTOs -----

type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type providerPart struct {
    ID          uint64 `json:"id"`
    Email       string `json:"email"`
    DisplayName string `json:"display_name"`
    Role        string `json:"role"`
}
type authResp struct {
    Provider providerPart `json:"provider"`
    Access   tokenPart    `json:"access"`
    Refresh  tokenPart    `json:"refresh"`
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Providers.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if !p.IsActive || !utils.VerifyPassword(p.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }
    return h.issue(c, ctx, p, http.StatusOK)
}

// Refresh: validate by hash, revoke the old token, issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    providerID, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    _ = h.Tokens.RevokeByHash(ctx, hash)

    p, err := h.Providers.GetByID(ctx, providerID)
    if err != nil || !p.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    return h.issue(c, ctx, p, http.StatusOK)
}

func (h *AuthHandler) issue(c echo.Context, ctx context.Context, p model.Provider, status int) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, p.ID, model.RoleProvider, time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, p.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }
    return c.JSON(status, authResp{
        Provider: providerPart{ID: p.ID, Email: p.Email, DisplayName: p.DisplayName, Role: model.RoleProvider},
        Access:   tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh:  tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
