package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/service"
)

type CommentController struct {
	BaseController
	commentService *service.CommentService
	pageSize       int
}

func NewCommentController(g *gin.RouterGroup, comments *service.CommentService, pageSize int) *CommentController {
	a := &CommentController{commentService: comments, pageSize: pageSize}
	a.initRouter(g)
	return a
}

func (a *CommentController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.GET("/:comment_id/", a.get)
	g.PATCH("/:comment_id/", a.update)
	g.DELETE("/:comment_id/", a.delete)
}

func (a *CommentController) list(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	comments, total, err := a.commentService.List(c.Request.Context(), titleID, reviewID, q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, comments)
}

func (a *CommentController) get(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentParams(c)
	if !ok {
		return
	}
	comment, err := a.commentService.Get(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (a *CommentController) create(c *gin.Context) {
	titleID, reviewID, ok := reviewParams(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !a.bind(c, &in) {
		return
	}
	comment, err := a.commentService.Create(c.Request.Context(), a.actor(c), titleID, reviewID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (a *CommentController) update(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentParams(c)
	if !ok {
		return
	}
	var in service.CommentInput
	if !a.bind(c, &in) {
		return
	}
	comment, err := a.commentService.Update(c.Request.Context(), a.actor(c), titleID, reviewID, commentID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (a *CommentController) delete(c *gin.Context) {
	titleID, reviewID, commentID, ok := commentParams(c)
	if !ok {
		return
	}
	if err := a.commentService.Delete(c.Request.Context(), a.actor(c), titleID, reviewID, commentID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func commentParams(c *gin.Context) (titleID, reviewID, commentID int, ok bool) {
	if titleID, reviewID, ok = reviewParams(c); !ok {
		return
	}
	commentID, ok = intParam(c, "comment_id")
	return
}
