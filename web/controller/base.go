// Package controller maps the /api/v1 routes onto the services and
// translates service errors into HTTP responses.
package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/locale"
	"github.com/yamdb/api-yamdb/web/middleware"
)

// BaseController carries the helpers shared by every controller.
type BaseController struct{}

func (a *BaseController) actor(c *gin.Context) *model.User {
	return middleware.CurrentUser(c)
}

// bind decodes the JSON body into dst, answering 400 when it cannot.
func (a *BaseController) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Debug("malformed body: ", err)
		detail(c, http.StatusBadRequest, "errMalformedBody")
		return false
	}
	return true
}

// I18nAPI returns the message for key in the request language.
func I18nAPI(c *gin.Context, key string, params ...string) string {
	return locale.I18n(locale.Lang(c), key, params...)
}

func detail(c *gin.Context, status int, key string) {
	c.JSON(status, entity.Detail{Detail: I18nAPI(c, key)})
}

// writeError renders err with the status of its kind. Unknown errors are
// logged and reported as 500.
func writeError(c *gin.Context, err error) {
	var (
		verr *entity.ValidationError
		uerr *entity.UsernameError
		yerr *entity.YearError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, verr.Fields)
	case errors.As(err, &uerr):
		c.JSON(http.StatusBadRequest, gin.H{"username": []string{uerr.Error()}})
	case errors.As(err, &yerr):
		c.JSON(http.StatusBadRequest, gin.H{"year": []string{yerr.Error()}})
	case errors.Is(err, entity.ErrInvalidConfirmationCode):
		detail(c, http.StatusBadRequest, "errInvalidConfirmationCode")
	case errors.Is(err, entity.ErrIdentityConflict):
		detail(c, http.StatusBadRequest, "errIdentityConflict")
	case errors.Is(err, entity.ErrDuplicateReview):
		detail(c, http.StatusBadRequest, "errDuplicateReview")
	case errors.Is(err, entity.ErrNotFound):
		detail(c, http.StatusNotFound, "errNotFound")
	case errors.Is(err, entity.ErrNotAuthenticated):
		detail(c, http.StatusUnauthorized, "errNotAuthenticated")
	case errors.Is(err, entity.ErrPermissionDenied):
		detail(c, http.StatusForbidden, "errPermissionDenied")
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		detail(c, http.StatusInternalServerError, "errInternal")
	}
}
