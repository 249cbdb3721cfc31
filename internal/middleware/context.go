package middleware

import (
	"github.com/go-authgate/authcore/internal/models"

	"github.com/gin-gonic/gin"
)

const userContextKey = "user"

// CurrentUser returns the identity stored by RequireBearer, or nil
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
