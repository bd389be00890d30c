package middleware

// identity.go holds the context keys JWTAuth fills and the helpers that read
// them back.

import (
    "github.com/labstack/echo/v4"
)

const providerIDKey = "provider_id"

// ProviderID returns the authenticated provider, or 0 when the request did
// not pass through JWTAuth.
func ProviderID(c echo.Context) uint64 {
    if v, ok := c.Get(providerIDKey).(uint64); ok {
        return v
    }
    return 0
}
