package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/service"
)

type ReviewController struct {
	BaseController
	reviewService *service.ReviewService
	pageSize      int
}

func NewReviewController(g *gin.RouterGroup, reviews *service.ReviewService, pageSize int) *ReviewController {
	a := &ReviewController{reviewService: reviews, pageSize: pageSize}
	a.initRouter(g)
	return a
}

func (a *ReviewController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:review_id/", a.get)
	g.PATCH("/:review_id/", a.update)
	g.DELETE("/:review_id/", a.delete)
}

func (a *ReviewController) list(c *gin.Context) {
	titleID, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	reviews, total, err := a.reviewService.List(c.Request.Context(), titleID, q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, reviews)
}

func (a *ReviewController) get(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	review, err := a.reviewService.Get(c.Request.Context(), titleID, reviewID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (a *ReviewController) create(c *gin.Context) {
	titleID, ok := intParam(c, "title_id")
	if !ok {
		return
	}
	var in service.ReviewInput
	if !a.bind(c, &in) {
		return
	}
	review, err := a.reviewService.Create(c.Request.Context(), a.actor(c), titleID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (a *ReviewController) update(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	var in service.ReviewInput
	if !a.bind(c, &in) {
		return
	}
	review, err := a.reviewService.Update(c.Request.Context(), a.actor(c), titleID, reviewID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (a *ReviewController) delete(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	if err := a.reviewService.Delete(c.Request.Context(), a.actor(c), titleID, reviewID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewParams(c *gin.Context) (titleID, reviewID int, ok bool) {
	if titleID, ok = intParam(c, "title_id"); !ok {
		return
	}
	reviewID, ok = intParam(c, "review_id")
	return
}
