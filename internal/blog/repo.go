package blog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"recipehub/pkg/models"
	"recipehub/pkg/utils"
)

const (
	fileExt      = ".md"
	maxListLimit = 100
)

// Repo keeps one markdown file per post under dir and mirrors them in memory.
// Writes hold mu and touch disk before memory.
type Repo struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	posts map[string]models.BlogPost
}

type ListQuery struct {
	Status string
	Tag    string
	Q      string // substring of title, excerpt or content
	Limit  int
	Offset int
}

// NewRepo creates dir if needed and loads every *.md file in it. Files that
// fail to parse are skipped with a warning.
func NewRepo(dir string, logger *zap.Logger) (*Repo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure blog dir: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read blog dir: %w", err)
	}

	r := &Repo{
		dir:    dir,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		posts:  make(map[string]models.BlogPost),
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != fileExt {
			continue
		}
		slug := strings.TrimSuffix(name, fileExt)
		if slug != utils.Slugify(slug) {
			logger.Warn("skipping blog file with non-slug name", zap.String("file", name))
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		post, err := decodePost(slug, data)
		if err != nil {
			logger.Warn("skipping blog file", zap.String("file", name), zap.Error(err))
			continue
		}
		r.posts[slug] = post
	}
	return r, nil
}

func (r *Repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.posts)
}

// List returns matching posts newest first plus the unpaged match count.
func (r *Repo) List(q ListQuery) ([]models.BlogPost, int) {
	kw := strings.ToLower(strings.TrimSpace(q.Q))
	status := strings.TrimSpace(q.Status)
	tag := strings.TrimSpace(q.Tag)

	r.mu.RLock()
	matched := make([]models.BlogPost, 0, len(r.posts))
	for _, p := range r.posts {
		if status != "" && !strings.EqualFold(p.Status, status) {
			continue
		}
		if tag != "" && !hasTag(p.Tags, tag) {
			continue
		}
		if kw != "" &&
			!strings.Contains(strings.ToLower(p.Title), kw) &&
			!strings.Contains(strings.ToLower(p.Excerpt), kw) &&
			!strings.Contains(strings.ToLower(p.Content), kw) {
			continue
		}
		matched = append(matched, clonePost(p))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
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

func (r *Repo) Get(slug string) (*models.BlogPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[slug]
	if !ok {
		return nil, ErrNotFound
	}
	out := clonePost(p)
	return &out, nil
}

func (r *Repo) Create(draft models.BlogPost) (*models.BlogPost, error) {
	p := clonePost(draft)
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, invalid("title", "required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, invalid("content", "required")
	}
	p.Slug = utils.Slugify(p.Title)
	if p.Slug == "" {
		return nil, invalid("title", "must contain at least one letter or digit")
	}
	status, err := parseStatus(p.Status)
	if err != nil {
		return nil, err
	}
	p.Status = status
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	p.PublishedAt = nil
	if p.Status == models.PostStatusPublished {
		at := p.CreatedAt
		p.PublishedAt = &at
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[p.Slug]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
	}
	if err := r.write(p); err != nil {
		return nil, err
	}
	r.posts[p.Slug] = p

	out := clonePost(p)
	return &out, nil
}

// Update applies patch to the post at slug. A title change renames the file.
func (r *Repo) Update(slug string, patch models.BlogPatch) (*models.BlogPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.posts[slug]
	if !ok {
		return nil, ErrNotFound
	}

	next := clonePost(cur)
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
		if next.Title == "" {
			return nil, invalid("title", "must not be empty")
		}
		next.Slug = utils.Slugify(next.Title)
		if next.Slug == "" {
			return nil, invalid("title", "must contain at least one letter or digit")
		}
	}
	if patch.Excerpt != nil {
		next.Excerpt = *patch.Excerpt
	}
	if patch.Author != nil {
		next.Author = *patch.Author
	}
	if patch.Tags != nil {
		next.Tags = append(make([]string, 0, len(*patch.Tags)), *patch.Tags...)
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return nil, invalid("content", "must not be empty")
		}
		next.Content = *patch.Content
	}
	if patch.Status != nil {
		status, err := parseStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		next.Status = status
	}
	next.UpdatedAt = r.now()
	if next.Status == models.PostStatusPublished && next.PublishedAt == nil {
		at := next.UpdatedAt
		next.PublishedAt = &at
	}

	if next.Slug != slug {
		if _, taken := r.posts[next.Slug]; taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, next.Slug)
		}
		// Move first, then rewrite in place: a crash in between leaves one
		// file under the new slug, never two copies of the post.
		moved := true
		if err := os.Rename(r.path(slug), r.path(next.Slug)); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("rename post file %s: %w", slug, err)
			}
			moved = false
		}
		if err := r.write(next); err != nil {
			if moved {
				_ = os.Rename(r.path(next.Slug), r.path(slug))
			}
			return nil, err
		}
		delete(r.posts, slug)
	} else if err := r.write(next); err != nil {
		return nil, err
	}
	r.posts[next.Slug] = next

	out := clonePost(next)
	return &out, nil
}

func (r *Repo) Delete(slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[slug]; !ok {
		return ErrNotFound
	}
	if err := os.Remove(r.path(slug)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	delete(r.posts, slug)
	return nil
}

func (r *Repo) path(slug string) string {
	return filepath.Join(r.dir, slug+fileExt)
}

func (r *Repo) write(p models.BlogPost) error {
	data, err := encodePost(p)
	if err != nil {
		return err
	}
	if err := utils.WriteFileAtomic(r.path(p.Slug), data, 0o644); err != nil {
		return fmt.Errorf("write post %s: %w", p.Slug, err)
	}
	return nil
}

func parseStatus(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", models.PostStatusDraft:
		return models.PostStatusDraft, nil
	case models.PostStatusPublished:
		return models.PostStatusPublished, nil
	}
	return "", invalid("status", "must be draft or published")
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}

func clonePost(p models.BlogPost) models.BlogPost {
	out := p
	if p.Tags != nil {
		out.Tags = make([]string, len(p.Tags))
		copy(out.Tags, p.Tags)
	}
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		out.PublishedAt = &at
	}
	return out
}
