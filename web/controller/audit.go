package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/service"
)

// AuditController exposes the audit trail to admins.
type AuditController struct {
	BaseController
	auditService  *service.AuditLogService
	pageSize      int
	retentionDays int
}

func NewAuditController(g *gin.RouterGroup, audit *service.AuditLogService, pageSize, retentionDays int) *AuditController {
	a := &AuditController{auditService: audit, pageSize: pageSize, retentionDays: retentionDays}
	a.initRouter(g)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.getAuditLogs)
	g.POST("/clean/", a.cleanOldLogs)
}

// getAuditLogs lists entries newest first, filtered by username, action,
// resource and an RFC 3339 since/until window.
func (a *AuditController) getAuditLogs(c *gin.Context) {
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	f := service.AuditFilter{
		Username: c.Query("username"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	verr := &entity.ValidationError{}
	for field, dst := range map[string]**time.Time{"since": &f.Since, "until": &f.Until} {
		raw := c.Query(field)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			verr.Add(field, "expected an RFC 3339 timestamp")
			continue
		}
		*dst = &t
	}
	if err := verr.Err(); err != nil {
		writeError(c, err)
		return
	}

	logs, total, err := a.auditService.List(c.Request.Context(), f, q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, logs)
}

// cleanOldLogs removes entries older than the requested number of days,
// defaulting to the configured retention.
func (a *AuditController) cleanOldLogs(c *gin.Context) {
	var req struct {
		Days int `json:"days"`
	}
	if c.Request.ContentLength != 0 && !a.bind(c, &req) {
		return
	}
	if req.Days <= 0 {
		req.Days = a.retentionDays
	}
	n, err := a.auditService.CleanOldLogs(c.Request.Context(), req.Days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n, "days": req.Days})
}
