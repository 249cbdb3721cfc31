package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/authcore/internal/auth"
	"github.com/go-authgate/authcore/internal/middleware"
	"github.com/go-authgate/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

// registerRequest takes the login handle as an opaque string; it is not
// required to look like an address
type registerRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserHandler serves registration and the current user's profile
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// Register creates a local account from a JSON body
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "email and password are required"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrDuplicateIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
		return
	case errors.Is(err, auth.ErrPasswordTooLong), errors.Is(err, auth.ErrEmptyPassword):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	default:
		log.Printf("[Auth] Registration failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, user.ToResponse())
}

// Me returns the profile of the bearer token's owner
func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user.ToResponse())
}
