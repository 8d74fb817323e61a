// Package recommend extracts structured recommendation items from a
// generated markdown answer. Extraction is a documented heuristic over the
// markdown structure: nothing downstream treats a miss as an error.
package recommend

import (
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Item is one recommendation pulled from the answer. Category is taken from
// the section heading the item appeared under and may be empty.
type Item struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Extract parses the markdown answer and returns the list items found under
// its section headings. The item title is the text before the first colon or
// dash separator; the rest becomes the description.
func Extract(markdown string) []Item {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}

	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var items []Item
	var section string

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level >= 2 {
				section = nodeText(node, source)
			}
			return ast.WalkSkipChildren, nil
		case *ast.ListItem:
			raw := nodeText(node, source)
			if raw == "" {
				return ast.WalkContinue, nil
			}
			title, description := splitItem(raw)
			items = append(items, Item{
				Title:       title,
				Description: description,
				Category:    categoryFromSection(section),
			})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return items
}

// nodeText concatenates the plain text content under a node.
func nodeText(n ast.Node, source []byte) string {
	var builder strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := child.(*ast.Text); ok {
			builder.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(builder.String())
}

// splitItem separates "Title: description" or "Title - description" forms.
func splitItem(raw string) (title, description string) {
	for _, sep := range []string{":", " - "} {
		if idx := strings.Index(raw, sep); idx > 0 {
			return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+len(sep):])
		}
	}
	return raw, ""
}

// sectionCategories maps heading keywords to item categories. Headings that
// are structural ("Recommended Careers", "Next Steps") carry no category.
var sectionCategories = map[string]string{
	"education":   "Education",
	"teaching":    "Education",
	"engineering": "Engineering",
	"healthcare":  "Healthcare",
	"health":      "Healthcare",
	"technology":  "Technology",
	"business":    "Business",
	"finance":     "Finance",
	"law":         "Law",
	"science":     "Science",
	"arts":        "Arts",
	"agriculture": "Agriculture",
	"trades":      "Trades",
}

func categoryFromSection(section string) string {
	lower := strings.ToLower(section)
	keywords := make([]string, 0, len(sectionCategories))
	for keyword := range sectionCategories {
		keywords = append(keywords, keyword)
	}
	sort.Strings(keywords)
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return sectionCategories[keyword]
		}
	}
	return ""
}
