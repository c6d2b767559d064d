package operator

import (
	"net/http"

	"hotspot-voucherd/pkg/errutil"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errutil.Respond(c, errutil.BadRequest("invalid request body"))
		return
	}

	token, err := s.Login(c.Request.Context(), c.ClientIP(), req.Username, req.Password)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Service) handleLogout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		if err := s.Logout(c.Request.Context(), token); err != nil {
			errutil.Respond(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Service) handleList(c *gin.Context) {
	rows, err := s.List(c.Request.Context())
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operators": rows})
}

type createOperatorRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) handleCreate(c *gin.Context) {
	var req createOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errutil.Respond(c, errutil.BadRequest("invalid request body"))
		return
	}

	op, err := s.Create(c.Request.Context(), req.Username, req.Password, RoleOperator)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (s *Service) handleDelete(c *gin.Context) {
	if err := s.Delete(c.Request.Context(), c.Param("id")); err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func RegisterRoutes(e *gin.Engine, svc *Service, mw *Middleware) {
	e.POST("/v1/login", svc.handleLogin)

	auth := e.Group("/v1", mw.RequireAuth())
	auth.POST("/logout", svc.handleLogout)

	super := auth.Group("/operators", mw.RequireSuper())
	super.GET("", svc.handleList)
	super.POST("", svc.handleCreate)
	super.DELETE("/:id", svc.handleDelete)
}
