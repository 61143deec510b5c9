package models

import "time"

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

type BlogPost struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Author      string     `json:"author"`
	Tags        []string   `json:"tags"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Content     string     `json:"content"`
}

type BlogPatch struct {
	Title   *string   `json:"title,omitempty"`
	Excerpt *string   `json:"excerpt,omitempty"`
	Author  *string   `json:"author,omitempty"`
	Tags    *[]string `json:"tags,omitempty"`
	Status  *string   `json:"status,omitempty"`
	Content *string   `json:"content,omitempty"`
}
