package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-authgate/authcore/internal/services"

	"github.com/gin-gonic/gin"
)

// loginForm mirrors the OAuth2 password grant form
type loginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// AuthHandler serves the password grant token endpoint
type AuthHandler struct {
	userService *services.UserService
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// LoginToken exchanges form-encoded credentials for a bearer token.
// The username field carries the email address.
func (h *AuthHandler) LoginToken(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "username and password are required"})
		return
	}

	result, err := h.userService.Login(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.Header("WWW-Authenticate", "Bearer")
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect email or password"})
			return
		}
		log.Printf("[Auth] Login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": result.TokenString,
		"token_type":   result.TokenType,
	})
}
