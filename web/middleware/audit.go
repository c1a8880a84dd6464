package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web/service"
)

// AuditRecorder persists one audit entry.
type AuditRecorder interface {
	LogAction(ctx context.Context, e service.AuditEntry) error
}

var resourceNames = map[string]string{
	"users":      "user",
	"me":         "user",
	"categories": "category",
	"genres":     "genre",
	"titles":     "title",
	"reviews":    "review",
	"comments":   "comment",
	"audit":      "audit",
}

// Audit records every successful write made by an authenticated user.
func Audit(recorder AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		action := auditAction(c.Request.Method)
		user := CurrentUser(c)
		if action == "" || user == nil || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		resource, key := auditTarget(c)
		entry := service.AuditEntry{
			UserId:      user.Id,
			Username:    user.Username,
			Action:      action,
			Resource:    resource,
			ResourceKey: key,
			IP:          c.ClientIP(),
			UserAgent:   c.GetHeader("User-Agent"),
			Details: map[string]any{
				"method":     c.Request.Method,
				"path":       c.Request.URL.Path,
				"status":     c.Writer.Status(),
				"request_id": c.GetString(requestIDKey),
			},
		}
		// The request context may already be cancelled by the client.
		if err := recorder.LogAction(context.WithoutCancel(c.Request.Context()), entry); err != nil {
			logger.Warning("failed to log audit action: ", err)
		}
	}
}

func auditAction(method string) string {
	switch method {
	case http.MethodPost:
		return "CREATE"
	case http.MethodPatch, http.MethodPut:
		return "UPDATE"
	case http.MethodDelete:
		return "DELETE"
	}
	return ""
}

// auditTarget names the innermost resource of the matched route and the
// path parameters that identify it.
func auditTarget(c *gin.Context) (resource, key string) {
	resource = "unknown"
	for _, seg := range strings.Split(c.FullPath(), "/") {
		if name, ok := resourceNames[seg]; ok {
			resource = name
		}
	}
	values := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		values = append(values, p.Value)
	}
	return resource, strings.Join(values, "/")
}
