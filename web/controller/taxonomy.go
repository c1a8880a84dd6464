package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/database/model"
	"github.com/yamdb/api-yamdb/web/service"
)

// SlugService is the shared surface of the category and genre services.
type SlugService interface {
	List(ctx context.Context, search string, q service.PageQuery) ([]service.SlugDTO, int64, error)
	Create(ctx context.Context, actor *model.User, in service.SlugInput) (service.SlugDTO, error)
	Delete(ctx context.Context, actor *model.User, slug string) error
}

// TaxonomyController serves /categories/ and /genres/.
type TaxonomyController struct {
	BaseController
	slugService SlugService
	pageSize    int
}

func NewTaxonomyController(g *gin.RouterGroup, svc SlugService, pageSize int) *TaxonomyController {
	a := &TaxonomyController{slugService: svc, pageSize: pageSize}
	a.initRouter(g)
	return a
}

func (a *TaxonomyController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.list)
	g.POST("/", a.create)
	g.DELETE("/:slug/", a.delete)
}

func (a *TaxonomyController) list(c *gin.Context) {
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	items, total, err := a.slugService.List(c.Request.Context(), c.Query("search"), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, items)
}

func (a *TaxonomyController) create(c *gin.Context) {
	var in service.SlugInput
	if !a.bind(c, &in) {
		return
	}
	item, err := a.slugService.Create(c.Request.Context(), a.actor(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (a *TaxonomyController) delete(c *gin.Context) {
	if err := a.slugService.Delete(c.Request.Context(), a.actor(c), c.Param("slug")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
