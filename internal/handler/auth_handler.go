package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/matricula/matricula/internal/middleware"
	"github.com/matricula/matricula/internal/model"
	"github.com/matricula/matricula/internal/response"
	"github.com/matricula/matricula/internal/service"
	"github.com/matricula/matricula/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates username + password and returns a JWT with the user.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, user, ok := h.login(c, req)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, model.LoginResponse{Token: token, User: *user})
}

// Token godoc
// POST /api/v1/auth/token
// OAuth2 password-grant flavour of Login reading a form body.
func (h *AuthHandler) Token(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.BindForm(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, _, ok := h.login(c, req)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, model.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *AuthHandler) login(c *gin.Context, req model.LoginRequest) (string, *model.User, bool) {
	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return "", nil, false
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return "", nil, false
	}
	return token, user, true
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated operator.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
