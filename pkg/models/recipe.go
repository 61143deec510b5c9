package models

import (
	"strings"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty accepts any casing of easy/medium/hard.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy, true
	case "medium":
		return DifficultyMedium, true
	case "hard":
		return DifficultyHard, true
	}
	return "", false
}

// Nutrition values are free text ("320 kcal", "12g").
type Nutrition struct {
	Calories string `json:"calories"`
	Protein  string `json:"protein"`
	Carbs    string `json:"carbs"`
	Fat      string `json:"fat"`
	Fiber    string `json:"fiber"`
	Sugar    string `json:"sugar"`
	Salt     string `json:"salt"`
}

type Recipe struct {
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	PrepTime    string     `json:"prepTime"`
	CookTime    string     `json:"cookTime"`
	TotalTime   string     `json:"totalTime"`
	Difficulty  Difficulty `json:"difficulty"`
	Servings    int        `json:"servings"`
	Category    string     `json:"category"`
	Ingredients []string   `json:"ingredients"`
	Method      []string   `json:"method"`
	Tips        []string   `json:"tips"`
	Nutrition   Nutrition  `json:"nutrition"`
	Dietary     []string   `json:"dietary"`
	Tags        []string   `json:"tags"`
	Season      string     `json:"season"`
	Reviews     []Review   `json:"reviews"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy so callers never share slices with the repository.
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = cloneStrings(r.Ingredients)
	out.Method = cloneStrings(r.Method)
	out.Tips = cloneStrings(r.Tips)
	out.Dietary = cloneStrings(r.Dietary)
	out.Tags = cloneStrings(r.Tags)
	if r.Reviews != nil {
		out.Reviews = make([]Review, len(r.Reviews))
		copy(out.Reviews, r.Reviews)
	}
	return out
}

// RecipePatch lists the fields an admin update may change. Nil means unchanged.
type RecipePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Image       *string    `json:"image,omitempty"`
	PrepTime    *string    `json:"prepTime,omitempty"`
	CookTime    *string    `json:"cookTime,omitempty"`
	TotalTime   *string    `json:"totalTime,omitempty"`
	Difficulty  *string    `json:"difficulty,omitempty"`
	Servings    *int       `json:"servings,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Ingredients *[]string  `json:"ingredients,omitempty"`
	Method      *[]string  `json:"method,omitempty"`
	Tips        *[]string  `json:"tips,omitempty"`
	Nutrition   *Nutrition `json:"nutrition,omitempty"`
	Dietary     *[]string  `json:"dietary,omitempty"`
	Tags        *[]string  `json:"tags,omitempty"`
	Season      *string    `json:"season,omitempty"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
