package blog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipehub/internal/auth"
	"recipehub/internal/events"
	"recipehub/pkg/models"
)

type Handler struct {
	Repo   *Repo
	Events events.Publisher
	Logger *zap.Logger
}

func NewHandler(repo *Repo, pub events.Publisher, logger *zap.Logger) *Handler {
	if pub == nil {
		pub = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Repo: repo, Events: pub, Logger: logger}
}

// RegisterPublicRoutes serves published posts only.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/blog", h.listPublished)
	rg.GET("/blog/:slug", h.getPublished)
}

// RegisterAdminRoutes expects rg to already carry auth.AuthMiddleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/blog", h.listAll)
	rg.POST("/blog/create", h.create)
	rg.POST("/blog/update", h.update)
	rg.POST("/blog/delete", h.delete)
}

func listQuery(c *gin.Context) ListQuery {
	return ListQuery{
		Status: c.Query("status"),
		Tag:    c.Query("tag"),
		Q:      c.Query("q"),
		Limit:  ClampLimit(parseInt(c.Query("limit"), 20)),
		Offset: parseInt(c.Query("offset"), 0),
	}
}

func (h *Handler) listPublished(c *gin.Context) {
	q := listQuery(c)
	q.Status = models.PostStatusPublished
	h.writeList(c, q)
}

func (h *Handler) listAll(c *gin.Context) {
	h.writeList(c, listQuery(c))
}

func (h *Handler) writeList(c *gin.Context, q ListQuery) {
	items, total := h.Repo.List(q)
	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getPublished(c *gin.Context) {
	p, err := h.Repo.Get(c.Param("slug"))
	if err == nil && p.Status != models.PostStatusPublished {
		err = ErrNotFound
	}
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) create(c *gin.Context) {
	var draft models.BlogPost
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	switch {
	case strings.TrimSpace(draft.Title) == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: title"})
		return
	case strings.TrimSpace(draft.Content) == "":
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: content"})
		return
	}

	u := auth.MustGetUser(c)
	if strings.TrimSpace(draft.Author) == "" && u != nil {
		draft.Author = u.Name
	}

	p, err := h.Repo.Create(draft)
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	actor := actorName(u)
	h.Logger.Info("post created", zap.String("slug", p.Slug), zap.String("status", p.Status), zap.String("actor", actor))
	h.Events.Publish(events.Event{Type: events.BlogCreated, Slug: p.Slug, Actor: actor})

	c.JSON(http.StatusCreated, gin.H{"success": true, "post": p})
}

type updateReq struct {
	Slug string `json:"slug"`
	models.BlogPatch
}

func (h *Handler) update(c *gin.Context) {
	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: slug"})
		return
	}

	p, err := h.Repo.Update(slug, req.BlogPatch)
	if err != nil {
		h.fail(c, "update", err)
		return
	}

	actor := actorName(auth.MustGetUser(c))
	ev := events.Event{Type: events.BlogUpdated, Slug: p.Slug, Actor: actor}
	if p.Slug != slug {
		ev.OldSlug = slug
	}
	h.Logger.Info("post updated", zap.String("slug", p.Slug), zap.String("actor", actor))
	h.Events.Publish(ev)

	c.JSON(http.StatusOK, gin.H{"success": true, "post": p})
}

type deleteReq struct {
	Slug string `json:"slug"`
}

func (h *Handler) delete(c *gin.Context) {
	var req deleteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: slug"})
		return
	}

	if err := h.Repo.Delete(slug); err != nil {
		h.fail(c, "delete", err)
		return
	}

	actor := actorName(auth.MustGetUser(c))
	h.Logger.Info("post deleted", zap.String("slug", slug), zap.String("actor", actor))
	h.Events.Publish(events.Event{Type: events.BlogDeleted, Slug: slug, Actor: actor})

	c.JSON(http.StatusOK, gin.H{"success": true, "slug": slug})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrNotFound.Error()})
	case errors.Is(err, ErrDuplicateSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	default:
		h.Logger.Error(op+" post failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed", "debug": err.Error()})
	}
}

func actorName(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.Username
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}
