package operator

import (
	"strings"

	"hotspot-voucherd/pkg/errutil"

	"github.com/gin-gonic/gin"
)

const contextKey = "operator"

// Middleware guards the admin API with bearer-token authentication.
type Middleware struct {
	svc *Service
}

func NewMiddleware(svc *Service) *Middleware {
	return &Middleware{svc: svc}
}

func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			errutil.Respond(c, errutil.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}

		op, err := m.svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			errutil.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(contextKey, op)
		c.Next()
	}
}

func (m *Middleware) RequireSuper() gin.HandlerFunc {
	return func(c *gin.Context) {
		op, ok := FromContext(c)
		if !ok || !op.IsSuper() {
			errutil.Respond(c, errutil.Forbidden("super admin only"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// FromContext returns the authenticated operator set by RequireAuth.
func FromContext(c *gin.Context) (*Operator, bool) {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil, false
	}
	op, ok := v.(*Operator)
	return op, ok
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}
