package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/middleware"
	"github.com/yamdb/api-yamdb/web/permission"
	"github.com/yamdb/api-yamdb/web/service"
)

// UserController serves account administration and the /users/me/ profile.
type UserController struct {
	BaseController
	userService *service.UserService
	pageSize    int
}

func NewUserController(g *gin.RouterGroup, users *service.UserService, pageSize int) *UserController {
	a := &UserController{userService: users, pageSize: pageSize}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	me := g.Group("/me", middleware.RequirePolicy(permission.AuthenticatedOnly))
	me.GET("/", a.getMe)
	me.PATCH("/", a.updateMe)

	admin := g.Group("", middleware.RequirePolicy(permission.AdminOnly))
	admin.GET("/", a.list)
	admin.POST("/", a.create)
	admin.GET("/:username/", a.get)
	admin.PATCH("/:username/", a.update)
	admin.DELETE("/:username/", a.delete)
}

func (a *UserController) list(c *gin.Context) {
	q, ok := pageQuery(c, a.pageSize)
	if !ok {
		return
	}
	users, total, err := a.userService.List(c.Request.Context(), c.Query("search"), q)
	if err != nil {
		writeError(c, err)
		return
	}
	writePage(c, q, total, users)
}

func (a *UserController) create(c *gin.Context) {
	var in service.UserInput
	if !a.bind(c, &in) {
		return
	}
	user, err := a.userService.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (a *UserController) get(c *gin.Context) {
	user, err := a.userService.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *UserController) update(c *gin.Context) {
	var in service.UserInput
	if !a.bind(c, &in) {
		return
	}
	user, err := a.userService.Update(c.Request.Context(), c.Param("username"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *UserController) delete(c *gin.Context) {
	if err := a.userService.Delete(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getMe answers from the account Authenticate loaded for this request.
func (a *UserController) getMe(c *gin.Context) {
	c.JSON(http.StatusOK, service.ToUserDTO(a.actor(c)))
}

func (a *UserController) updateMe(c *gin.Context) {
	var in service.UserInput
	if !a.bind(c, &in) {
		return
	}
	user, err := a.userService.UpdateMe(c.Request.Context(), a.actor(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
