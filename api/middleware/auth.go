package middleware

import (
	"context"
	"net/http"
	"strings"

	"example.com/backstage/services/inventory/api/apierr"
	"example.com/backstage/services/inventory/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const userContextKey = "current_user"

// Authenticator resolves a bearer token to a user
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the user in the context
func RequireAuth(authn Authenticator, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apierr.Write(c, log, apierr.NewError("Authorization header required", http.StatusUnauthorized, "UNAUTHORIZED"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			apierr.Write(c, log, apierr.NewError("Invalid Authorization header format. Expected: 'Bearer {token}'", http.StatusUnauthorized, "UNAUTHORIZED"))
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			log.WithError(err).WithField("client_ip", ClientIP(c)).Warn("Rejected access token")
			apierr.Write(c, log, err)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAuth
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
