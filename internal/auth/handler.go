package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Service      *Service
	CookieSecure bool
	Logger       *zap.Logger
}

func NewHandler(svc *Service, cookieSecure bool, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, CookieSecure: cookieSecure, Logger: logger}
}

// RegisterRoutes mounts login/logout/me. guards run before login only.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, guards ...gin.HandlerFunc) {
	rg.POST("/login", append(guards, h.login)...)
	rg.POST("/logout", h.logout)
	rg.GET("/me", AuthMiddleware(h.Service), h.me)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: username"})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: password"})
		return
	}

	u, err := h.Service.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			h.Logger.Error("authenticate", zap.Error(err))
		}
		h.Logger.Info("login rejected", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		// don't reveal which part failed
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Service.IssueToken(u)
	if err != nil {
		h.Logger.Error("issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed", "debug": err.Error()})
		return
	}

	h.setCookie(c, token, int(time.Until(exp).Seconds()))
	h.Logger.Info("login", zap.String("username", u.Username), zap.String("role", u.Role))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user":       publicUser(u),
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

// logout only clears the cookie; tokens are stateless and expire on their own.
func (h *Handler) logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) me(c *gin.Context) {
	u := MustGetUser(c)
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": publicUser(u)})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, value, maxAge, "/", "", h.CookieSecure, true)
}

func publicUser(u *User) gin.H {
	return gin.H{
		"username": u.Username,
		"role":     u.Role,
		"name":     u.Name,
	}
}
