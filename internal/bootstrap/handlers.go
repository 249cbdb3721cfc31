package bootstrap

import (
	"github.com/go-authgate/authcore/internal/handlers"
	"github.com/go-authgate/authcore/internal/services"
)

// handlerSet holds all HTTP handlers and required services
type handlerSet struct {
	auth        *handlers.AuthHandler
	user        *handlers.UserHandler
	oauth       *handlers.OAuthHandler
	userService *services.UserService
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	userService *services.UserService,
	oauthService *services.OAuthService,
) handlerSet {
	return handlerSet{
		auth:        handlers.NewAuthHandler(userService),
		user:        handlers.NewUserHandler(userService),
		oauth:       handlers.NewOAuthHandler(oauthService),
		userService: userService,
	}
}
