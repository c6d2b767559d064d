package voucher

import (
	"net/http"
	"strings"

	"hotspot-voucherd/pkg/errutil"
	"hotspot-voucherd/services/operator"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type generateRequest struct {
	Profile  string `json:"profile" binding:"required"`
	Scope    string `json:"scope"`
	Quantity int    `json:"qty" binding:"required"`
}

func (h *Handler) handleGenerate(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}
	// Vouchers belong to the operator that issued them. The super admin
	// manages accounts and routers, not stock.
	if op.IsSuper() {
		errutil.Respond(c, errutil.Forbidden("super admin cannot issue vouchers"))
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errutil.Respond(c, errutil.BadRequest("invalid request body"))
		return
	}

	codes, err := h.svc.Generate(c.Request.Context(), GenerateInput{
		OwnerUserID: op.ID,
		ProfileName: req.Profile,
		Scope:       RouterScope(req.Scope),
		Quantity:    req.Quantity,
	})
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"codes": codes})
}

func (h *Handler) handleList(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	f := ListFilter{
		Status:   Status(c.Query("status")),
		CodeLike: strings.ToUpper(c.Query("q")),
	}
	if !op.IsSuper() {
		f.OwnerUserID = op.ID
	}

	views, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vouchers": views})
}

func (h *Handler) handleDelete(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		owner = ""
	}
	code := strings.ToUpper(c.Param("code"))
	if err := h.svc.Delete(c.Request.Context(), code, owner); err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": code})
}

func (h *Handler) handleRevoke(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		owner = ""
	}
	code := strings.ToUpper(c.Param("code"))
	if err := h.svc.Revoke(c.Request.Context(), code, owner); err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": code})
}

func (h *Handler) handleDashboard(c *gin.Context) {
	op, ok := operator.FromContext(c)
	if !ok {
		errutil.Respond(c, errutil.Unauthorized("unauthorized"))
		return
	}

	owner := op.ID
	if op.IsSuper() {
		owner = ""
	}
	counts, err := h.svc.Dashboard(c.Request.Context(), owner)
	if err != nil {
		errutil.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func RegisterRoutes(r *gin.Engine, h *Handler, mw *operator.Middleware) {
	v1 := r.Group("/v1", mw.RequireAuth())
	{
		v1.GET("/vouchers", h.handleList)
		v1.POST("/vouchers", h.handleGenerate)
		v1.DELETE("/vouchers/:code", h.handleDelete)
		v1.POST("/vouchers/:code/revoke", h.handleRevoke)
		v1.GET("/dashboard", h.handleDashboard)
	}
}

var Module = fx.Module("voucher.module",
	fx.Provide(
		NewService,
		NewHandler,
	),
	fx.Invoke(RegisterRoutes),
)
