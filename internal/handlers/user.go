package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/dto"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
)

// Revoker invalidates an issued token until its expiry. *auth.Revocations implements it.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// SessionCloser drops push connections opened with a token. *notify.Hub implements it.
type SessionCloser interface {
	DropToken(tokenID string) int
}

// UserHandler handles registration, login, logout and profiles.
type UserHandler struct {
	users    *service.UserService
	tokens   *auth.Tokens
	revoker  Revoker
	sessions SessionCloser
	log      *slog.Logger
}

// NewUserHandler returns a new UserHandler. sessions may be nil.
func NewUserHandler(users *service.UserService, tokens *auth.Tokens, revoker Revoker, sessions SessionCloser, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, tokens: tokens, revoker: revoker, sessions: sessions, log: log}
}

// Register godoc
// @Summary      Register
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RegisterRequest  true  "New account"
// @Success      201   {object}  dto.UserResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewUserResponse(u))
}

// Login godoc
// @Summary      Login
// @Description  Returns a bearer token for the Authorization header (or ?token= on /ws).
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      dto.LoginRequest  true  "Credentials"
// @Success      200   {object}  dto.LoginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.users.ValidateCredentials(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	token, _, err := h.tokens.Issue(u.ID, u.Name)
	if err != nil {
		h.log.Error("issue token", "user_id", u.ID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, User: dto.NewUserResponse(u)})
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the presented token and closes push connections opened with it.
// @Tags         users
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /users/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	claims := auth.ClaimsFromContext(c)
	if claims != nil && claims.ExpiresAt != nil {
		if err := h.revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			h.log.Error("revoke token", "principal_id", claims.PrincipalID(), "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
	}
	if claims != nil && h.sessions != nil {
		h.sessions.DropToken(claims.ID)
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary      List users
// @Description  Every registered user, for picking an assignee.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   dto.UserResponse
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponses(list))
}

// Profile godoc
// @Summary      Get my profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.UserResponse
// @Failure      404  {object}  map[string]string
// @Router       /users/profile [get]
func (h *UserHandler) Profile(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), auth.PrincipalFromContext(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}

// UpdateProfile godoc
// @Summary      Update my profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.UpdateProfileRequest  true  "Fields to change"
// @Success      200   {object}  dto.UserResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /users/profile [patch]
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), auth.PrincipalFromContext(c), service.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewUserResponse(u))
}
