package router

import (
	"net/http"

	"hotspot-voucherd/pkg/errutil"
	"hotspot-voucherd/services/operator"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type createRouterRequest struct {
	RouterID    string `json:"router_id"`
	Name        string `json:"name"`
	Secret      string `json:"secret"`
	OwnerUserID string `json:"owner_user_id"` // super only
}

func (s *Service) handleCreate(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	var req createRouterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errutil.Respond(c, errutil.BadRequest("invalid request body"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		if req.OwnerUserID == "" {
			errutil.Respond(c, errutil.BadRequest("owner_user_id is required"))
			return
		}
		owner = req.OwnerUserID
	}

	r, err := s.Create(c.Request.Context(), CreateInput{
		RouterID:    req.RouterID,
		Name:        req.Name,
		OwnerUserID: owner,
		Secret:      req.Secret,
	})
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	// The secret is returned once, on creation, so the operator can
	// provision the router firmware.
	c.JSON(http.StatusCreated, gin.H{"router": r, "secret": r.Secret})
}

func (s *Service) handleDelete(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		owner = ""
	}
	if err := s.Delete(c.Request.Context(), c.Param("id"), owner); err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Service) handleList(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		owner = ""
	}
	rows, err := s.List(c.Request.Context(), owner)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routers": rows})
}

func RegisterRoutes(e *gin.Engine, svc *Service, mw *operator.Middleware) {
	g := e.Group("/v1/routers", mw.RequireAuth())
	g.GET("", svc.handleList)
	g.POST("", svc.handleCreate)
	g.DELETE("/:id", svc.handleDelete)
}

var Module = fx.Module("router.module",
	fx.Provide(NewService),
	fx.Invoke(RegisterRoutes),
)
