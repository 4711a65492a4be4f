package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskbox/task-api/internal/api/middleware"
	"github.com/taskbox/task-api/internal/core/domain"
)

// currentUser extracts the identity the access gate attached to the request.
// Its presence proves the gate ran; handlers never re-verify the token.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.UserContextKey).(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication context")
	}
	return user, nil
}
