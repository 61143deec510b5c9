package recipe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"recipehub/pkg/models"
)

// CSVColumns is the column order written by WriteCSV. ReadCSV matches
// headers by name, so extra or reordered columns are fine.
var CSVColumns = []string{
	"title", "description", "category", "difficulty", "servings",
	"prep_time", "cook_time", "ingredients", "method", "tags",
}

const listSep = "|"

// ReadCSV parses recipe drafts. Rows without a title are skipped.
func ReadCSV(r io.Reader) ([]models.Recipe, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header := make(map[string]int, len(head))
	for i, name := range head {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := header["title"]; !ok {
		return nil, errors.New(`csv header has no "title" column`)
	}

	var out []models.Recipe
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		get := func(key string) string {
			idx, ok := header[key]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if get("title") == "" {
			continue
		}

		rec := models.Recipe{
			Title:       get("title"),
			Description: get("description"),
			Category:    get("category"),
			Difficulty:  models.Difficulty(get("difficulty")),
			PrepTime:    get("prep_time"),
			CookTime:    get("cook_time"),
			Ingredients: splitList(get("ingredients")),
			Method:      splitList(get("method")),
			Tags:        splitList(get("tags")),
		}
		if s := get("servings"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: servings %q: %w", line, s, err)
			}
			rec.Servings = n
		}
		out = append(out, rec)
	}
	return out, nil
}

func WriteCSV(w io.Writer, recipes []models.Recipe) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return err
	}
	for _, r := range recipes {
		if err := cw.Write([]string{
			r.Title,
			r.Description,
			r.Category,
			string(r.Difficulty),
			strconv.Itoa(r.Servings),
			r.PrepTime,
			r.CookTime,
			strings.Join(r.Ingredients, listSep),
			strings.Join(r.Method, listSep),
			strings.Join(r.Tags, listSep),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, listSep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
