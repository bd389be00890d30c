package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/provider-sync/internal/config"
    "github.com/iliyamo/provider-sync/internal/model"
    "github.com/iliyamo/provider-sync/internal/repository"
    "github.com/iliyamo/provider-sync/internal/utils"
)

type memAccounts struct{ byEmail map[string]model.Provider }

func (m memAccounts) GetByEmail(_ context.Context, email string) (model.Provider, error) {
    p, ok := m.byEmail[email]
    if !ok {
        return p, repository.ErrNotFound
    }
    return p, nil
}

func (m memAccounts) GetByID(_ context.Context, id uint64) (model.Provider, error) {
    for _, p := range m.byEmail {
        if p.ID == id {
            return p, nil
        }
    }
    return model.Provider{}, repository.ErrNotFound
}

type memTokens struct{ live map[string]uint64 }

func (m *memTokens) StoreRefresh(_ context.Context, id uint64, hash string, _ time.Time) error {
    m.live[hash] = id
    return nil
}

func (m *memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
    id, ok := m.live[hash]
    if !ok {
        return 0, repository.ErrNotFound
    }
    return id, nil
}

func (m *memTokens) RevokeByHash(_ context.Context, hash string) error {
    delete(m.live, hash)
    return nil
}

func newAuth(t *testing.T) *echo.Echo {
    t.Helper()
    hash, err := utils.HashPassword("hunter2hunter2", bcrypt.MinCost)
    require.NoError(t, err)
    accounts := memAccounts{byEmail: map[string]model.Provider{
        "tanaka@example.jp":   {ID: 3, Email: "tanaka@example.jp", PasswordHash: hash, DisplayName: "tanaka", IsActive: true},
        "disabled@example.jp": {ID: 4, Email: "disabled@example.jp", PasswordHash: hash},
    }}
    h := NewAuthHandler(config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 1}, accounts, &memTokens{live: map[string]uint64{}})
    e := echo.New()
    e.POST("/v1/auth/login", h.Login)
    e.POST("/v1/auth/refresh", h.Refresh)
    return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestLoginIssuesProviderToken(t *testing.T) {
    e := newAuth(t)
    rec := postJSON(e, "/v1/auth/login", `{"email":" Tanaka@Example.jp ","password":"hunter2hunter2"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    var resp authResp
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    claims, err := utils.ParseAccessToken(testSecret, resp.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, uint64(3), claims.ProviderID)
    assert.Equal(t, model.RoleProvider, claims.Role)
    assert.NotEmpty(t, resp.Refresh.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
    e := newAuth(t)
    assert.Equal(t, http.StatusUnauthorized, postJSON(e, "/v1/auth/login", `{"email":"tanaka@example.jp","password":"nope-nope"}`).Code)
    assert.Equal(t, http.StatusUnauthorized, postJSON(e, "/v1/auth/login", `{"email":"ghost@example.jp","password":"hunter2hunter2"}`).Code)
    assert.Equal(t, http.StatusUnauthorized, postJSON(e, "/v1/auth/login", `{"email":"disabled@example.jp","password":"hunter2hunter2"}`).Code)
    assert.Equal(t, http.StatusBadRequest, postJSON(e, "/v1/auth/login", `{"email":""}`).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
    e := newAuth(t)
    var first authResp
    require.NoError(t, json.Unmarshal(postJSON(e, "/v1/auth/login", `{"email":"tanaka@example.jp","password":"hunter2hunter2"}`).Body.Bytes(), &first))

    body := `{"refresh_token":"` + first.Refresh.Token + `"}`
    rec := postJSON(e, "/v1/auth/refresh", body)
    require.Equal(t, http.StatusOK, rec.Code)

    // the old refresh token is revoked
    assert.Equal(t, http.StatusUnauthorized, postJSON(e, "/v1/auth/refresh", body).Code)
}
