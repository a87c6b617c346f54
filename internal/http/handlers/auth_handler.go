// Account HTTP handlers.
//
// This file exposes REST endpoints for signup, login, logout, and profile:
//   - POST /auth/signup
//   - POST /auth/login
//   - POST /auth/logout
//   - GET  /auth/me      (bearer)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reprice/go-reprice-backend/internal/domain"
	"github.com/reprice/go-reprice-backend/internal/services"
)

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	// Name is the display name.
	Name string `json:"name" binding:"required,min=1,max=128" example:"Asha Rao"`
	// Phone is the login identifier, unique per user type.
	Phone string `json:"phone" binding:"required,min=6,max=32" example:"+919000000001"`
	// Password must be at least 6 characters.
	Password string `json:"password" binding:"required,min=6,max=72"`
	// UserType is "customer" or "agent".
	UserType string `json:"user_type" binding:"required" example:"customer"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required" example:"+919000000001"`
	Password string `json:"password" binding:"required"`
	UserType string `json:"user_type" binding:"required" example:"customer"`
}

// AuthResponse wraps an account and its bearer token.
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Signup godoc
// @ID          signup
// @Summary     Register an account
// @Description Creates a customer or agent account. The same phone may register once per user type.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SignupRequest  true  "Signup payload"
//
// @Success     201  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Phone already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/signup [post]
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, token, err := h.authSvc.Signup(c.Request.Context(), req.Name, req.Phone, req.Password, req.UserType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicatePhone):
			fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
		case errors.Is(err, services.ErrInvalidUserType),
			errors.Is(err, services.ErrWeakPassword),
			errors.Is(err, services.ErrInvalidCredentials):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, AuthResponse{User: u, Token: token})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies phone and password within a user type and returns a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	u, token, err := h.authSvc.Login(c.Request.Context(), req.Phone, req.Password, req.UserType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
		case errors.Is(err, services.ErrInvalidUserType):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AuthResponse{User: u, Token: token})
}

// Logout godoc
// @ID          logout
// @Summary     Log out
// @Description Tokens are stateless; logout is a client-side discard. Always succeeds.
// @Tags        Auth
// @Produce     json
//
// @Success     200  {object}  map[string]string
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"message": "logged out"})
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Description Returns the account for the bearer token.
// @Tags        Auth
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	uid, _ := identity(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	u, err := h.authSvc.Profile(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "user not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, u)
}
