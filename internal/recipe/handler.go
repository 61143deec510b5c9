package recipe

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

// RegisterPublicRoutes mounts the read API. reviewGuards run before the
// review endpoint (rate limiting).
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup, reviewGuards ...gin.HandlerFunc) {
	rg.GET("/recipes", h.list)
	rg.GET("/recipes/categories", h.categories)
	rg.GET("/recipes/tags", h.tags)
	rg.GET("/recipes/:slug", h.get)
	rg.POST("/recipes/:slug/reviews", append(reviewGuards, h.addReview)...)
}

// RegisterAdminRoutes expects rg to already carry auth.AuthMiddleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/recipes/create", h.create)
	rg.POST("/recipes/update", h.update)
	rg.POST("/recipes/delete", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		Q:        c.Query("q"),
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Limit:    ClampLimit(parseInt(c.Query("limit"), 20)),
		Offset:   parseInt(c.Query("offset"), 0),
	}

	items, total := h.Repo.List(q)
	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) get(c *gin.Context) {
	rec, err := h.Repo.Get(c.Param("slug"))
	if err != nil {
		h.fail(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Repo.Categories()})
}

func (h *Handler) tags(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.Repo.Tags()})
}

type reviewReq struct {
	UserID  string `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) addReview(c *gin.Context) {
	var req reviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	slug := c.Param("slug")
	review, err := h.Repo.AddReview(c.Request.Context(), slug, req.UserID, req.Rating, req.Comment)
	if err != nil {
		h.fail(c, "add review", err)
		return
	}

	h.Events.Publish(events.Event{Type: events.RecipeReviewed, Slug: slug, Actor: review.UserID})
	c.JSON(http.StatusCreated, review)
}

func (h *Handler) create(c *gin.Context) {
	var draft models.Recipe
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if field := firstMissing(draft); field != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required field: " + field})
		return
	}

	rec, err := h.Repo.Create(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, "create", err)
		return
	}

	actor := actorName(c)
	h.Logger.Info("recipe created", zap.String("slug", rec.Slug), zap.String("actor", actor))
	h.Events.Publish(events.Event{Type: events.RecipeCreated, Slug: rec.Slug, Actor: actor})

	c.JSON(http.StatusCreated, gin.H{"success": true, "recipe": rec})
}

type updateReq struct {
	Slug string `json:"slug"`
	models.RecipePatch
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

	rec, err := h.Repo.Update(c.Request.Context(), slug, req.RecipePatch)
	if err != nil {
		h.fail(c, "update", err)
		return
	}

	actor := actorName(c)
	ev := events.Event{Type: events.RecipeUpdated, Slug: rec.Slug, Actor: actor}
	if rec.Slug != slug {
		ev.OldSlug = slug
		h.Logger.Info("recipe renamed", zap.String("from", slug), zap.String("to", rec.Slug), zap.String("actor", actor))
	} else {
		h.Logger.Info("recipe updated", zap.String("slug", slug), zap.String("actor", actor))
	}
	h.Events.Publish(ev)

	c.JSON(http.StatusOK, gin.H{"success": true, "recipe": rec})
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

	if err := h.Repo.Delete(c.Request.Context(), slug); err != nil {
		h.fail(c, "delete", err)
		return
	}

	actor := actorName(c)
	h.Logger.Info("recipe deleted", zap.String("slug", slug), zap.String("actor", actor))
	h.Events.Publish(events.Event{Type: events.RecipeDeleted, Slug: slug, Actor: actor})

	c.JSON(http.StatusOK, gin.H{"success": true, "slug": slug})
}

// fail maps repository errors onto status codes. Anything unexpected is a
// 500 with the underlying message in "debug".
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
		h.Logger.Error(op+" recipe failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed", "debug": err.Error()})
	}
}

func actorName(c *gin.Context) string {
	if u := auth.MustGetUser(c); u != nil {
		return u.Username
	}
	return ""
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
