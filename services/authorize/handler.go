package authorize

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var macPattern = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Request is the wire format posted by router firmware.
type Request struct {
	RouterID string `json:"router_id"`
	MAC      string `json:"mac"`
	Voucher  string `json:"voucher"`
	TS       int64  `json:"ts"`
	Nonce    string `json:"nonce"`
	Sig      string `json:"sig"`
}

// HandleAuth answers POST /api/auth. The response body is always one of two
// fixed shapes so firmware can parse it with a trivial JSON walker.
func (h *Handler) HandleAuth(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeDeny(c, req, ReasonMissing)
		return
	}

	req.RouterID = strings.TrimSpace(req.RouterID)
	req.MAC = strings.ToLower(strings.TrimSpace(req.MAC))
	req.Voucher = strings.ToUpper(strings.TrimSpace(req.Voucher))
	req.Nonce = strings.TrimSpace(req.Nonce)
	req.Sig = strings.TrimSpace(req.Sig)

	if req.RouterID == "" || req.MAC == "" || req.Voucher == "" || req.Nonce == "" || req.Sig == "" {
		h.writeDeny(c, req, ReasonMissing)
		return
	}
	if !macPattern.MatchString(req.MAC) {
		h.writeDeny(c, req, ReasonMAC)
		return
	}

	d := h.svc.Authorize(c.Request.Context(), Input{
		RouterID: req.RouterID,
		MAC:      req.MAC,
		Voucher:  req.Voucher,
		TS:       req.TS,
		Nonce:    req.Nonce,
		Sig:      req.Sig,
	})

	if d.Allow {
		h.recordEvent(c, req, d)
		c.JSON(http.StatusOK, gin.H{
			"allow":     1,
			"remaining": d.Remaining,
			"up":        d.Up,
			"down":      d.Down,
		})
		return
	}
	h.writeDeny(c, req, d.Reason)
}

func (h *Handler) writeDeny(c *gin.Context, req Request, reason Reason) {
	h.recordEvent(c, req, deny(reason))
	c.JSON(reason.HTTPStatus(), gin.H{
		"allow":  0,
		"reason": reason,
	})
}

// recordEvent writes the audit row. Failures are logged and swallowed; the
// decision already stands.
func (h *Handler) recordEvent(c *gin.Context, req Request, d Decision) {
	payload, err := json.Marshal(map[string]interface{}{
		"ts":        req.TS,
		"nonce":     req.Nonce,
		"remaining": d.Remaining,
		"client_ip": c.ClientIP(),
	})
	if err != nil {
		payload = nil
	}

	ev := AuthEvent{
		ID:          h.svc.node.Generate().Int64(),
		RouterID:    req.RouterID,
		VoucherCode: req.Voucher,
		MAC:         req.MAC,
		Allow:       d.Allow,
		Reason:      string(d.Reason),
		Payload:     datatypes.JSON(payload),
	}
	if err := h.svc.db.WithContext(c.Request.Context()).Create(&ev).Error; err != nil {
		zap.L().Warn("auth event write failed", zap.Error(err))
	}
}

func RegisterRoutes(e *gin.Engine, h *Handler) {
	e.POST("/api/auth", h.HandleAuth)
}
