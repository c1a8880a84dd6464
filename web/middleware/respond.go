package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/locale"
)

// abort stops the chain with a localized {"detail": ...} body.
func abort(c *gin.Context, status int, key string) {
	c.AbortWithStatusJSON(status, entity.Detail{Detail: locale.I18n(locale.Lang(c), key)})
}
