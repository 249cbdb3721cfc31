package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/go-authgate/authcore/internal/models"

	"github.com/gin-gonic/gin"
)

// IdentityResolver maps a raw bearer token to a live identity
type IdentityResolver interface {
	Resolve(ctx context.Context, rawToken string) (*models.User, error)
}

const bearerScheme = "bearer"

// RequireBearer rejects requests without a resolvable bearer token. On
// success the identity is available through CurrentUser and
// models.GetUserFromContext.
func RequireBearer(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), raw)
		if err != nil {
			log.Printf("[Auth] Bearer token rejected: path=%s ip=%s err=%v",
				c.Request.URL.Path, c.ClientIP(), err)
			unauthorized(c, "Could not validate credentials")
			return
		}

		c.Set(userContextKey, user)
		c.Request = c.Request.WithContext(models.SetUserContext(c.Request.Context(), user))
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, credential, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	credential = strings.TrimSpace(credential)
	return credential, credential != ""
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
