package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonldMinBody is the minimum trimmed articleBody length for a JSON-LD
// object to qualify. Shorter bodies are usually teasers.
const jsonldMinBody = 200

// articleTypes are the schema.org types treated as articles.
var articleTypes = map[string]struct{}{
	"Article":              {},
	"NewsArticle":          {},
	"BlogPosting":          {},
	"WebPage":              {},
	"ReportageNewsArticle": {},
}

// Metadata is the structured-data view of an article.
type Metadata struct {
	Title     string
	Author    string
	Published string
	Body      string
}

// JSONLD scans every <script type="application/ld+json"> in the document and
// returns the first article-typed object carrying a usable body, or nil.
// Parse errors in individual scripts are skipped; publishers routinely ship
// broken JSON next to valid blocks.
func JSONLD(html string) *Metadata {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var found *Metadata
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(sel.Text()), &raw); err != nil {
			return true
		}
		for _, item := range flatten(raw) {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if meta := fromObject(obj); meta != nil {
				found = meta
				return false
			}
		}
		return true
	})
	return found
}

// flatten unwraps top-level arrays so each candidate object is inspected.
func flatten(raw any) []any {
	if list, ok := raw.([]any); ok {
		return list
	}
	return []any{raw}
}

// fromObject converts one JSON-LD object into Metadata when it is
// article-typed and carries enough body text.
func fromObject(obj map[string]any) *Metadata {
	if !isArticleType(obj["@type"]) {
		return nil
	}

	body := textField(obj["articleBody"])
	if body == "" {
		body = textField(obj["text"])
	}
	if len(strings.TrimSpace(body)) < jsonldMinBody {
		return nil
	}

	title := firstString(obj["headline"])
	if title == "" {
		title = firstString(obj["name"])
	}

	meta := &Metadata{
		Title:  title,
		Author: authorName(obj["author"]),
		Body:   strings.TrimSpace(body),
	}
	if date := firstString(obj["datePublished"]); date != "" {
		meta.Published = date
	} else {
		meta.Published = firstString(obj["dateModified"])
	}
	return meta
}

// isArticleType accepts a string @type or the first element of an array one.
func isArticleType(v any) bool {
	switch t := v.(type) {
	case string:
		_, ok := articleTypes[t]
		return ok
	case []any:
		if len(t) == 0 {
			return false
		}
		if s, ok := t[0].(string); ok {
			_, found := articleTypes[s]
			return found
		}
	}
	return false
}

// textField renders articleBody/text values, joining array parts with spaces.
func textField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

// firstString returns the value when it is a string, or the first string in
// an array value.
func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// authorName handles the author field's three observed shapes: an object
// with a name, an array of objects or strings, or a bare value.
func authorName(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		return firstString(t["name"])
	case []any:
		if len(t) == 0 {
			return ""
		}
		switch first := t[0].(type) {
		case map[string]any:
			return firstString(first["name"])
		case string:
			return first
		}
		return ""
	}
	return fmt.Sprintf("%v", v)
}
