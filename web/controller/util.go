package controller

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/service"
)

// pageQuery reads ?page. Anything but a positive integer is answered
// with 404 and ok=false.
func pageQuery(c *gin.Context, size int) (service.PageQuery, bool) {
	q := service.PageQuery{Page: 1, Size: size}
	raw := c.Query("page")
	if raw == "" {
		return q, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		detail(c, http.StatusNotFound, "errNotFound")
		return q, false
	}
	q.Page = n
	return q, true
}

// intParam reads a numeric path parameter. Non-numeric ids cannot name a
// resource, so they are answered with 404.
func intParam(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		detail(c, http.StatusNotFound, "errNotFound")
		return 0, false
	}
	return n, true
}

// requestURL rebuilds the absolute URL of the request for page links.
func requestURL(c *gin.Context) *url.URL {
	u := *c.Request.URL
	u.Host = c.Request.Host
	u.Scheme = "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		u.Scheme = "https"
	}
	return &u
}

func writePage[T any](c *gin.Context, q service.PageQuery, total int64, results []T) {
	c.JSON(http.StatusOK, entity.NewPage(requestURL(c), q.Page, q.Size, total, results))
}
