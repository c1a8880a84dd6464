package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/permission"
)

// RequirePolicy gates a route group on a collection-level policy.
func RequirePolicy(p permission.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := p.Check(permission.Request{Actor: CurrentUser(c), Method: c.Request.Method})
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, entity.ErrNotAuthenticated):
			abort(c, http.StatusUnauthorized, "errNotAuthenticated")
		default:
			abort(c, http.StatusForbidden, "errPermissionDenied")
		}
	}
}
