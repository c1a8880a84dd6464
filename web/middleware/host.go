package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AllowedHost rejects requests whose Host is not domain. An empty domain
// accepts every host.
func AllowedHost(domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if domain != "" && hostOnly(c.Request.Host) != domain {
			abort(c, http.StatusForbidden, "errPermissionDenied")
			return
		}
		c.Next()
	}
}

func hostOnly(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}
