package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/logger"
	"github.com/yamdb/api-yamdb/web/service"
)

const maxLogLines = 1000

// ServerController serves the health report and the admin log tail.
type ServerController struct {
	BaseController
	serverService *service.ServerService
}

func NewServerController(server *service.ServerService) *ServerController {
	return &ServerController{serverService: server}
}

// status answers 503 when a dependency is down so that probes notice.
func (a *ServerController) status(c *gin.Context) {
	status := a.serverService.GetStatus(c.Request.Context())
	code := http.StatusOK
	if status.Status != service.StatusOK {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// getLogs returns up to ?count buffered log lines at or above ?level.
func (a *ServerController) getLogs(c *gin.Context) {
	count, err := strconv.Atoi(c.DefaultQuery("count", "100"))
	if err != nil || count <= 0 {
		count = 100
	}
	count = min(count, maxLogLines)
	c.JSON(http.StatusOK, gin.H{"logs": logger.GetLogs(count, c.DefaultQuery("level", "INFO"))})
}
