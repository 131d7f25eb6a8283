package tokens

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ApiTokenMiddleware requires "Authorization: Bearer <token>" when a token is
// configured and lets everything through otherwise.
func ApiTokenMiddleware(token string) echo.MiddlewareFunc {
	if token == "" {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		Validator: func(auth string, c echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(auth), []byte(token)) == 1, nil
		},
		// the websocket stream cannot set headers from a browser
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get("Upgrade") == "websocket" && c.QueryParam("token") == token
		},
	})
}
