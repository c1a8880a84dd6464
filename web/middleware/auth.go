package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/service"
)

const userKey = "user"

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*service.Claims, error)
}

// UserLoader resolves the account named by a token.
type UserLoader interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
}

// Authenticate resolves "Authorization: Bearer <token>" to the current
// user. Requests without the header continue anonymously; a header that
// does not resolve to a live account is rejected with 401.
func Authenticate(tokens TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, "errInvalidToken")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(token))
		if err != nil {
			logger.Debug("rejected bearer token: ", err)
			abort(c, http.StatusUnauthorized, "errInvalidToken")
			return
		}
		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if errors.Is(err, entity.ErrNotFound) {
			abort(c, http.StatusUnauthorized, "errInvalidToken")
			return
		}
		if err != nil {
			logger.Error("load token user: ", err)
			abort(c, http.StatusInternalServerError, "errInternal")
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}
