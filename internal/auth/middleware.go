package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CookieName = "admin_token"
	CtxUserKey = "auth_user"
)

// TokenCandidates returns the session cookie token and then the bearer
// token, skipping whichever is absent.
func TokenCandidates(c *gin.Context) []string {
	var out []string
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		out = append(out, v)
	}
	h := c.GetHeader("Authorization")
	if len(h) > len("bearer ") && strings.EqualFold(h[:len("bearer ")], "bearer ") {
		if v := strings.TrimSpace(h[len("bearer "):]); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// AuthMiddleware accepts the first candidate token that verifies, so a stale
// cookie does not shadow a valid bearer header.
func AuthMiddleware(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, token := range TokenCandidates(c) {
			u, err := svc.VerifyToken(token)
			if err != nil {
				continue
			}
			c.Set(CtxUserKey, u)
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	}
}

func MustGetUser(c *gin.Context) *User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*User)
	return u
}
