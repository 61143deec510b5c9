package blog

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"recipehub/pkg/models"
)

const fence = "---"

var errNoFrontmatter = errors.New("missing frontmatter block")

type frontmatter struct {
	Title       string     `yaml:"title"`
	Excerpt     string     `yaml:"excerpt,omitempty"`
	Author      string     `yaml:"author,omitempty"`
	Tags        []string   `yaml:"tags"`
	Status      string     `yaml:"status"`
	PublishedAt *time.Time `yaml:"published_at,omitempty"`
	CreatedAt   time.Time  `yaml:"created_at"`
	UpdatedAt   time.Time  `yaml:"updated_at"`
}

// encodePost renders p as a frontmatter block followed by the markdown body.
func encodePost(p models.BlogPost) ([]byte, error) {
	fm := frontmatter{
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Author:      p.Author,
		Tags:        p.Tags,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(head)
	if !bytes.HasSuffix(head, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(fence + "\n\n")
	buf.WriteString(p.Content)
	return buf.Bytes(), nil
}

// decodePost parses a file written by encodePost. slug comes from the file name.
func decodePost(slug string, data []byte) (models.BlogPost, error) {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, fence+"\n") {
		return models.BlogPost{}, errNoFrontmatter
	}
	rest := text[len(fence)+1:]

	var head, body string
	switch {
	case strings.HasPrefix(rest, fence+"\n"):
		body = rest[len(fence)+1:]
	default:
		end := strings.Index(rest, "\n"+fence+"\n")
		if end < 0 {
			if !strings.HasSuffix(rest, "\n"+fence) {
				return models.BlogPost{}, errNoFrontmatter
			}
			end = len(rest) - len(fence) - 1
			head = rest[:end]
		} else {
			head = rest[:end]
			body = rest[end+len(fence)+2:]
		}
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(head), &fm); err != nil {
		return models.BlogPost{}, fmt.Errorf("parse frontmatter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return models.BlogPost{}, errors.New("frontmatter: title required")
	}

	status := fm.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}

	return models.BlogPost{
		Slug:        slug,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Author:      fm.Author,
		Tags:        tags,
		Status:      status,
		PublishedAt: fm.PublishedAt,
		CreatedAt:   fm.CreatedAt,
		UpdatedAt:   fm.UpdatedAt,
		Content:     strings.TrimPrefix(body, "\n"),
	}, nil
}
