package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/jobsite-manager/internal/auth"
)

const (
	ContextUserID    = "userID"
	ContextUserRole  = "userRole"
	ContextPrincipal = "principal"
)

// SessionResolver extracts the principal of the current request, if any.
type SessionResolver interface {
	Resolve(r *http.Request) (*auth.Principal, bool)
}

func setPrincipal(c *gin.Context, p *auth.Principal) {
	c.Set(ContextPrincipal, p)
	c.Set(ContextUserID, p.ID)
	c.Set(ContextUserRole, string(p.Type))
}

// PrincipalFrom returns the principal stored by the guard.
func PrincipalFrom(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

var _ SessionResolver = (*auth.Sessions)(nil)
