package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

const (
	defaultSeason   = "All"
	defaultServings = 4
	maxListLimit    = 100
	maxCommentLen   = 2000
)

// Repo owns the in-memory recipe map for the life of the process.
// Writes are serialized by mu and reach the Store before memory changes,
// so a failed persist leaves both unchanged.
type Repo struct {
	store Store
	now   func() time.Time

	mu      sync.RWMutex
	recipes map[string]models.Recipe
}

type ListQuery struct {
	Q        string // substring of title or description, case-insensitive
	Category string
	Tag      string // matches tags or dietary
	Limit    int
	Offset   int
}

func NewRepo(ctx context.Context, store Store) (*Repo, error) {
	all, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	r := &Repo{
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		recipes: make(map[string]models.Recipe, len(all)),
	}
	for _, rec := range all {
		if _, dup := r.recipes[rec.Slug]; dup {
			return nil, fmt.Errorf("load recipes: duplicate slug %q", rec.Slug)
		}
		r.recipes[rec.Slug] = rec
	}
	return r, nil
}

func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.recipes)
}

// List returns matching recipes ordered by title plus the unpaged match count.
func (r *Repo) List(q ListQuery) ([]models.Recipe, int) {
	kw := strings.ToLower(strings.TrimSpace(q.Q))
	category := strings.TrimSpace(q.Category)
	tag := strings.TrimSpace(q.Tag)

	r.mu.RLock()
	matched := make([]models.Recipe, 0, len(r.recipes))
	for _, rec := range r.recipes {
		if kw != "" &&
			!strings.Contains(strings.ToLower(rec.Title), kw) &&
			!strings.Contains(strings.ToLower(rec.Description), kw) {
			continue
		}
		if category != "" && !strings.EqualFold(rec.Category, category) {
			continue
		}
		if tag != "" && !containsFold(rec.Tags, tag) && !containsFold(rec.Dietary, tag) {
			continue
		}
		matched = append(matched, rec.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		ti, tj := strings.ToLower(matched[i].Title), strings.ToLower(matched[j].Title)
		if ti != tj {
			return ti < tj
		}
		return matched[i].Slug < matched[j].Slug
	})

	total := len(matched)
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := total
	if limit := ClampLimit(q.Limit); limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], total
}

// ClampLimit returns the page size List actually applies. Zero or less
// means no limit.
func ClampLimit(n int) int {
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}

func (r *Repo) Get(slug string) (*models.Recipe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.recipes[slug]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

// Create checks required fields, derives the slug from the title, fills
// defaults and persists.
// Slug, reviews and timestamps on the draft are ignored.
func (r *Repo) Create(ctx context.Context, draft models.Recipe) (*models.Recipe, error) {
	rec := draft.Clone()
	rec.Title = strings.TrimSpace(rec.Title)
	if field := firstMissing(rec); field != "" {
		return nil, invalid(field, "required")
	}
	rec.Slug = utils.Slugify(rec.Title)
	if rec.Slug == "" {
		return nil, invalid("title", "must contain at least one letter or digit")
	}
	if err := applyDefaults(&rec); err != nil {
		return nil, err
	}
	rec.Reviews = []models.Review{}
	rec.CreatedAt = r.now()
	rec.UpdatedAt = rec.CreatedAt

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.recipes[rec.Slug]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, rec.Slug)
	}
	if err := r.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist recipe %s: %w", rec.Slug, err)
	}
	r.recipes[rec.Slug] = rec

	out := rec.Clone()
	return &out, nil
}

// Update applies patch to the recipe at slug. A title change re-derives the
// slug and moves the entry; the returned recipe carries the new slug.
func (r *Repo) Update(ctx context.Context, slug string, patch models.RecipePatch) (*models.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.recipes[slug]
	if !ok {
		return nil, ErrNotFound
	}

	next := cur.Clone()
	if err := applyPatch(&next, patch); err != nil {
		return nil, err
	}
	next.Slug = slug
	if patch.Title != nil {
		next.Slug = utils.Slugify(next.Title)
		if next.Slug == "" {
			return nil, invalid("title", "must contain at least one letter or digit")
		}
	}
	next.UpdatedAt = r.now()

	if next.Slug != slug {
		if _, taken := r.recipes[next.Slug]; taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, next.Slug)
		}
		if err := r.store.Rename(ctx, slug, next); err != nil {
			return nil, fmt.Errorf("rename recipe %s -> %s: %w", slug, next.Slug, err)
		}
		delete(r.recipes, slug)
	} else if err := r.store.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("persist recipe %s: %w", slug, err)
	}
	r.recipes[next.Slug] = next

	out := next.Clone()
	return &out, nil
}

func (r *Repo) Delete(ctx context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[slug]; !ok {
		return ErrNotFound
	}
	if err := r.store.Delete(ctx, slug); err != nil {
		return fmt.Errorf("delete recipe %s: %w", slug, err)
	}
	delete(r.recipes, slug)
	return nil
}

// AddReview appends a review to the recipe at slug.
func (r *Repo) AddReview(ctx context.Context, slug, userID string, rating int, comment string) (*models.Review, error) {
	userID = strings.TrimSpace(userID)
	comment = strings.TrimSpace(comment)
	if userID == "" {
		return nil, invalid("userId", "required")
	}
	if rating < 1 || rating > 5 {
		return nil, invalid("rating", "must be between 1 and 5")
	}
	if len(comment) > maxCommentLen {
		return nil, invalid("comment", fmt.Sprintf("must be at most %d characters", maxCommentLen))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.recipes[slug]
	if !ok {
		return nil, ErrNotFound
	}

	review := models.Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: r.now(),
	}
	next := cur.Clone()
	next.Reviews = append(next.Reviews, review)

	if err := r.store.Put(ctx, next); err != nil {
		return nil, fmt.Errorf("persist review on %s: %w", slug, err)
	}
	r.recipes[slug] = next
	return &review, nil
}

// Categories returns the distinct categories in use, sorted.
func (r *Repo) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range r.recipes {
		if rec.Category != "" {
			seen[rec.Category] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Tags returns the distinct tags and dietary labels in use, sorted.
func (r *Repo) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range r.recipes {
		for _, t := range rec.Tags {
			seen[t] = struct{}{}
		}
		for _, t := range rec.Dietary {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// firstMissing returns the first required create field that is empty.
func firstMissing(r models.Recipe) string {
	switch {
	case strings.TrimSpace(r.Title) == "":
		return "title"
	case strings.TrimSpace(r.Description) == "":
		return "description"
	case strings.TrimSpace(r.Category) == "":
		return "category"
	case len(r.Ingredients) == 0:
		return "ingredients"
	case len(r.Method) == 0:
		return "method"
	}
	return ""
}

func applyDefaults(rec *models.Recipe) error {
	if rec.Difficulty == "" {
		rec.Difficulty = models.DifficultyMedium
	} else {
		d, ok := models.ParseDifficulty(string(rec.Difficulty))
		if !ok {
			return invalid("difficulty", "must be one of Easy, Medium, Hard")
		}
		rec.Difficulty = d
	}
	if rec.Servings <= 0 {
		rec.Servings = defaultServings
	}
	if strings.TrimSpace(rec.Season) == "" {
		rec.Season = defaultSeason
	}
	rec.Ingredients = nonNil(rec.Ingredients)
	rec.Method = nonNil(rec.Method)
	rec.Tips = nonNil(rec.Tips)
	rec.Dietary = nonNil(rec.Dietary)
	rec.Tags = nonNil(rec.Tags)
	return nil
}

func applyPatch(rec *models.Recipe, p models.RecipePatch) error {
	if p.Title != nil {
		rec.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		if strings.TrimSpace(*p.Description) == "" {
			return invalid("description", "must not be empty")
		}
		rec.Description = *p.Description
	}
	if p.Image != nil {
		rec.Image = *p.Image
	}
	if p.PrepTime != nil {
		rec.PrepTime = *p.PrepTime
	}
	if p.CookTime != nil {
		rec.CookTime = *p.CookTime
	}
	if p.TotalTime != nil {
		rec.TotalTime = *p.TotalTime
	}
	if p.Difficulty != nil {
		d, ok := models.ParseDifficulty(*p.Difficulty)
		if !ok {
			return invalid("difficulty", "must be one of Easy, Medium, Hard")
		}
		rec.Difficulty = d
	}
	if p.Servings != nil {
		if *p.Servings <= 0 {
			return invalid("servings", "must be positive")
		}
		rec.Servings = *p.Servings
	}
	if p.Category != nil {
		if strings.TrimSpace(*p.Category) == "" {
			return invalid("category", "must not be empty")
		}
		rec.Category = *p.Category
	}
	if p.Ingredients != nil {
		if len(*p.Ingredients) == 0 {
			return invalid("ingredients", "must not be empty")
		}
		rec.Ingredients = copyStrings(*p.Ingredients)
	}
	if p.Method != nil {
		if len(*p.Method) == 0 {
			return invalid("method", "must not be empty")
		}
		rec.Method = copyStrings(*p.Method)
	}
	if p.Tips != nil {
		rec.Tips = copyStrings(*p.Tips)
	}
	if p.Nutrition != nil {
		rec.Nutrition = *p.Nutrition
	}
	if p.Dietary != nil {
		rec.Dietary = copyStrings(*p.Dietary)
	}
	if p.Tags != nil {
		rec.Tags = copyStrings(*p.Tags)
	}
	if p.Season != nil {
		rec.Season = *p.Season
		if strings.TrimSpace(rec.Season) == "" {
			rec.Season = defaultSeason
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func containsFold(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
