package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yamdb/api-yamdb/web/locale"
	"github.com/yamdb/api-yamdb/web/service"
)

// AuthController handles signup and token exchange.
type AuthController struct {
	BaseController
	authService *service.AuthService
}

func NewAuthController(g *gin.RouterGroup, auth *service.AuthService) *AuthController {
	a := &AuthController{authService: auth}
	a.initRouter(g)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup) {
	g.POST("/signup/", a.signup)
	g.POST("/token/", a.token)
}

func (a *AuthController) signup(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if !a.bind(c, &req) {
		return
	}
	res, err := a.authService.Signup(c.Request.Context(), req.Username, req.Email, locale.Lang(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *AuthController) token(c *gin.Context) {
	var req struct {
		Username         string `json:"username"`
		ConfirmationCode string `json:"confirmation_code"`
	}
	if !a.bind(c, &req) {
		return
	}
	token, err := a.authService.Token(c.Request.Context(), req.Username, req.ConfirmationCode)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
