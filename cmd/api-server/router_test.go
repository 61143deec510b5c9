package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"recipehub/internal/auth"
	"recipehub/internal/blog"
	"recipehub/internal/events"
	"recipehub/internal/recipe"
	"recipehub/internal/storage"
	"recipehub/pkg/utils"
)

func setupApp(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users, err := auth.NewRepo([]auth.User{{Username: "admin", PasswordHash: string(hash), Role: auth.RoleAdmin, Name: "Admin"}})
	if err != nil {
		t.Fatalf("users: %v", err)
	}

	cfg := &utils.Config{
		Server:    utils.ServerConfig{MaxBodyBytes: 1 << 20},
		Storage:   utils.StorageConfig{Driver: "json", JSONPath: filepath.Join(dir, "recipes.json")},
		RateLimit: utils.RateLimitConfig{RPS: 0.01, Burst: 3},
		CORS:      utils.CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
	}

	store := storage.NewJSONFile(cfg.Storage.JSONPath)
	recipes, err := recipe.NewRepo(context.Background(), store)
	if err != nil {
		t.Fatalf("recipes: %v", err)
	}
	posts, err := blog.NewRepo(filepath.Join(dir, "blog"), zap.NewNop())
	if err != nil {
		t.Fatalf("posts: %v", err)
	}

	return newRouter(&app{
		cfg:    cfg,
		logger: zap.NewNop(),
		auth: auth.NewService(users, auth.TokenService{
			Secret:   []byte("0123456789abcdef0123456789abcdef"),
			Issuer:   "recipehub",
			Duration: time.Hour,
		}),
		recipes: recipes,
		posts:   posts,
		store:   store,
		hub:     events.NewHub(zap.NewNop()),
	})
}

func request(r http.Handler, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:5555"
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, r http.Handler) *http.Cookie {
	t.Helper()
	rec := request(r, http.MethodPost, "/api/admin/login", `{"username":"admin","password":"s3cret-pass"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d; body=%s", rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealthAndReady(t *testing.T) {
	r := setupApp(t)

	if rec := request(r, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
	rec := request(r, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d; body=%s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestAdminFlow(t *testing.T) {
	r := setupApp(t)

	body := `{"title":"Lemon Tart","description":"Sharp and sweet","category":"Baking","ingredients":["lemons"],"method":["bake"]}`
	if rec := request(r, http.MethodPost, "/api/admin/recipes/create", body, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create status = %d, want 401", rec.Code)
	}

	cookie := login(t, r)
	if rec := request(r, http.MethodPost, "/api/admin/recipes/create", body, cookie); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body=%s", rec.Code, rec.Body)
	}

	rec := request(r, http.MethodGet, "/api/recipes", "", nil)
	var page struct {
		Total int `json:"total"`
		Items []struct {
			Slug string `json:"slug"`
		} `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 1 || page.Items[0].Slug != "lemon-tart" {
		t.Errorf("page = %+v", page)
	}

	post := `{"title":"Welcome","content":"hello","status":"published"}`
	if rec := request(r, http.MethodPost, "/api/admin/blog/create", post, cookie); rec.Code != http.StatusCreated {
		t.Fatalf("blog create status = %d; body=%s", rec.Code, rec.Body)
	}
	if rec := request(r, http.MethodGet, "/api/blog/welcome", "", nil); rec.Code != http.StatusOK {
		t.Errorf("public blog status = %d", rec.Code)
	}

	if rec := request(r, http.MethodPost, "/api/admin/logout", "", cookie); rec.Code != http.StatusOK {
		t.Errorf("logout status = %d", rec.Code)
	}
}

func TestLoginIsRateLimited(t *testing.T) {
	r := setupApp(t)

	bad := `{"username":"admin","password":"wrong"}`
	for i := 0; i < 3; i++ {
		if rec := request(r, http.MethodPost, "/api/admin/login", bad, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i, rec.Code)
		}
	}
	if rec := request(r, http.MethodPost, "/api/admin/login", bad, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}
