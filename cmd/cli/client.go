package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"recipehub/internal/auth"
	"recipehub/pkg/models"
)

type apiClient struct {
	http *resty.Client
}

type apiError struct {
	Status  int
	Message string `json:"error"`
	Debug   string `json:"debug"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	if e.Debug != "" {
		msg += " (" + e.Debug + ")"
	}
	return msg
}

type loginResponse struct {
	Success   bool      `json:"success"`
	User      userInfo  `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type recipePage struct {
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Items  []models.Recipe `json:"items"`
}

type postPage struct {
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Items  []models.BlogPost `json:"items"`
}

type recipeResult struct {
	Success bool          `json:"success"`
	Recipe  models.Recipe `json:"recipe"`
}

func newAPIClient(baseURL, token string) *apiClient {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &apiClient{http: c}
}

func (c *apiClient) do(ctx context.Context, method, path string, query map[string]string, body, out any) (*resty.Response, error) {
	apiErr := &apiError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = resp.Status()
		}
		return resp, apiErr
	}
	return resp, nil
}

// Login returns the session token taken from the admin cookie.
func (c *apiClient) Login(ctx context.Context, username, password string) (string, *loginResponse, error) {
	var out loginResponse
	resp, err := c.do(ctx, http.MethodPost, "/api/admin/login", nil,
		map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return "", nil, err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.CookieName && ck.Value != "" {
			return ck.Value, &out, nil
		}
	}
	return "", nil, fmt.Errorf("login succeeded but no %s cookie was set", auth.CookieName)
}

func (c *apiClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/logout", nil, nil, nil)
	return err
}

func (c *apiClient) Me(ctx context.Context) (*userInfo, error) {
	var out struct {
		User userInfo `json:"user"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/api/admin/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

type listParams struct {
	Q, Category, Tag, Status string
	Limit, Offset            int
}

func (p listParams) query() map[string]string {
	q := map[string]string{
		"limit":  strconv.Itoa(p.Limit),
		"offset": strconv.Itoa(p.Offset),
	}
	for k, v := range map[string]string{"q": p.Q, "category": p.Category, "tag": p.Tag, "status": p.Status} {
		if v != "" {
			q[k] = v
		}
	}
	return q
}

func (c *apiClient) ListRecipes(ctx context.Context, p listParams) (*recipePage, error) {
	var out recipePage
	if _, err := c.do(ctx, http.MethodGet, "/api/recipes", p.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) GetRecipe(ctx context.Context, slug string) (*models.Recipe, error) {
	var out models.Recipe
	if _, err := c.do(ctx, http.MethodGet, "/api/recipes/"+slug, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) CreateRecipe(ctx context.Context, draft any) (*models.Recipe, error) {
	var out recipeResult
	if _, err := c.do(ctx, http.MethodPost, "/api/admin/recipes/create", nil, draft, &out); err != nil {
		return nil, err
	}
	return &out.Recipe, nil
}

// UpdateRecipe sends patch as-is; it must carry "slug".
func (c *apiClient) UpdateRecipe(ctx context.Context, patch any) (*models.Recipe, error) {
	var out recipeResult
	if _, err := c.do(ctx, http.MethodPost, "/api/admin/recipes/update", nil, patch, &out); err != nil {
		return nil, err
	}
	return &out.Recipe, nil
}

func (c *apiClient) DeleteRecipe(ctx context.Context, slug string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/admin/recipes/delete", nil, map[string]string{"slug": slug}, nil)
	return err
}

func (c *apiClient) AddReview(ctx context.Context, slug, userID string, rating int, comment string) (*models.Review, error) {
	var out models.Review
	body := map[string]any{"userId": userID, "rating": rating, "comment": comment}
	if _, err := c.do(ctx, http.MethodPost, "/api/recipes/"+slug+"/reviews", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListPosts uses the admin listing when admin is set, which includes drafts.
func (c *apiClient) ListPosts(ctx context.Context, p listParams, admin bool) (*postPage, error) {
	path := "/api/blog"
	if admin {
		path = "/api/admin/blog"
	}
	var out postPage
	if _, err := c.do(ctx, http.MethodGet, path, p.query(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) GetPost(ctx context.Context, slug string) (*models.BlogPost, error) {
	var out models.BlogPost
	if _, err := c.do(ctx, http.MethodGet, "/api/blog/"+slug, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
