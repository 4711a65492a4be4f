package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskbox/task-api/internal/api/metrics"
	"github.com/taskbox/task-api/internal/api/middleware"
	"github.com/taskbox/task-api/internal/core/domain"
	"github.com/taskbox/task-api/internal/core/ports"
)

// AuthHandler handles the /auth endpoints.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account and issues the first token pair.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  envelope
// @Failure      422   {object}  envelope
// @Failure      500   {object}  envelope
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid request payload"))
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	result, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return c.JSON(http.StatusUnprocessableEntity, envelope{
				Success: false,
				Message: "Validation errors",
				Errors:  map[string][]string{"email": {"The username or email has already been taken."}},
			})
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	return c.JSON(http.StatusCreated, ok("User registered successfully", authTokensResponse{
		User:         toUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
	}))
}

// Login authenticates by email and password and issues a fresh token pair.
// Prior sessions stay valid.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      422   {object}  envelope
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid request payload"))
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return c.JSON(http.StatusUnauthorized, fail("Invalid credentials"))
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()
	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()

	return c.JSON(http.StatusOK, ok("Login successful", authTokensResponse{
		User:         toUserResponse(result.User),
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "Bearer",
	}))
}

// Logout revokes every session of the presented token's owner. A token that
// no longer verifies is still a successful logout; only a structurally
// missing header is rejected.
//
// @Summary      Logout everywhere
// @Tags         auth
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      401  {object}  envelope
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	raw, found := middleware.BearerToken(c.Request().Header.Get("Authorization"))
	if !found {
		return c.JSON(http.StatusUnauthorized, fail("Authorization header missing or invalid"))
	}

	if err := h.authService.Logout(c.Request().Context(), raw); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ok("Logged out successfully", nil))
}

// Refresh trades a valid refresh token for a new access token. The refresh
// token itself is not rotated.
//
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  envelope
// @Failure      401   {object}  envelope
// @Failure      422   {object}  envelope
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, fail("Invalid request payload"))
	}
	if err := c.Validate(&req); err != nil {
		return validationFailure(c, err)
	}

	result, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidToken) {
			return c.JSON(http.StatusUnauthorized, fail("Invalid refresh token"))
		}
		return err
	}

	metrics.TokensIssuedTotal.WithLabelValues("access").Inc()

	return c.JSON(http.StatusOK, ok("Token refreshed successfully", refreshResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
	}))
}

// Me returns the authenticated user's profile.
//
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  envelope
// @Failure      401  {object}  envelope
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ok("User profile retrieved successfully", map[string]any{
		"user": userProfileResponse{
			ID:        user.ID,
			Username:  user.Username,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
	}))
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
	}
}

// validationFailure renders validator output as the 422 envelope.
func validationFailure(c echo.Context, err error) error {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, envelope{
			Success: false,
			Message: "Validation errors",
			Errors:  ve,
		})
	}
	return c.JSON(http.StatusUnprocessableEntity, fail("Validation errors"))
}
