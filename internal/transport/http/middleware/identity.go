package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"user-account-service/internal/domain"
	resp "user-account-service/internal/transport/http/response"
)

const KeyIdentity = "identity"

// Authenticator resolves a bearer access token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

// RequireIdentity rejects requests without a valid bearer token naming an
// active user. Role checks are left to the services.
func RequireIdentity(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		tok, ok := strings.CutPrefix(ah, "Bearer ")
		if !ok || strings.TrimSpace(tok) == "" {
			resp.Abort(c, resp.CodeUnauthorized, "missing token")
			return
		}
		u, err := a.Authenticate(c.Request.Context(), strings.TrimSpace(tok))
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrInvalidToken):
			resp.Abort(c, resp.CodeUnauthorized, domain.ErrInvalidToken.Error())
			return
		case errors.Is(err, domain.ErrUserNotFound):
			resp.Abort(c, resp.CodeNotFound, domain.ErrUserNotFound.Error())
			return
		default:
			_ = c.Error(err)
			resp.Abort(c, resp.CodeServerError, "")
			return
		}
		c.Set(KeyIdentity, u)
		c.Next()
	}
}

// Identity returns the user resolved by RequireIdentity, or nil.
func Identity(c *gin.Context) *domain.User {
	v, ok := c.Get(KeyIdentity)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}
