package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/entity"
	"github.com/yamdb/api-yamdb/web/service"
)

// TitleController serves /titles/ and the nested review and comment routes.
type TitleController struct {
	BaseController
	titleService *service.TitleService
	pageSize     int
}

func NewTitleController(g *gin.RouterGroup, titles *service.TitleService, reviews *service.ReviewService, comments *service.CommentService, pageSize int) *TitleController {
	a := &TitleController{titleService: titles, pageSize: pageSize}
	a.initRouter(g)

	reviewGroup := g.Group("/:title_id/reviews")
	NewReviewController(reviewGroup, reviews, pageSize)
	NewCommentController(reviewGroup.Group("/:review_id/comments"), comments, pageSize)
	return a
}

func (a *TitleController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:title_id/", a.get)
	g.PATCH("/:title_id/", a.update)
	g.DELETE("/:title_id/", a.delete)
}

func (a *TitleController) list(c *gin.Context) {
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	f := service.TitleFilter{
		Genre:    c.Query("genre"),
		Category: c.Query("category"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, entity.NewValidationError("year", "a valid integer is required"))
			return
		}
		f.Year = &year
	}
	titles, total, err := a.titleService.List(c.Request.Context(), f, q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, titles)
}

func (a *TitleController) get(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	title, err := a.titleService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

func (a *TitleController) create(c *gin.Context) {
	var in service.TitleInput
	if !a.bind(c, &in) {
		return
	}
	title, err := a.titleService.Create(c.Request.Context(), a.actor(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, title)
}

func (a *TitleController) update(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	var in service.TitleInput
	if !a.bind(c, &in) {
		return
	}
	title, err := a.titleService.Update(c.Request.Context(), a.actor(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

func (a *TitleController) delete(c *gin.Context) {
	id, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	if err := a.titleService.Delete(c.Request.Context(), a.actor(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
