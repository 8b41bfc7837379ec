package extract

import (
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// readabilityMinText is the minimum plain-text length for a readability
// result to count as a real extraction rather than a miss.
const readabilityMinText = 200

// Article is a cleaned article: an HTML fragment plus the metadata the
// extractor could recover.
type Article struct {
	Title    string
	Content  string
	Byline   string
	SiteName string
	Excerpt  string
}

// FromHTML runs the Mozilla Readability algorithm over rawHTML. The second
// return value reports whether readability itself succeeded; on failure the
// article is composed from the document body with the <title> (or first
// <h1>) as title, so the pipeline always has something to convert.
func FromHTML(rawHTML, sourceURL string) (Article, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return fallbackArticle(rawHTML), false
	}

	art, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return fallbackArticle(rawHTML), false
	}
	if len(strings.TrimSpace(art.TextContent)) < readabilityMinText {
		return fallbackArticle(rawHTML), false
	}

	return Article{
		Title:    art.Title,
		Content:  art.Content,
		Byline:   art.Byline,
		SiteName: art.SiteName,
		Excerpt:  art.Excerpt,
	}, true
}

// fallbackArticle builds an Article straight from the document body.
func fallbackArticle(rawHTML string) Article {
	article := Article{Content: rawHTML}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return article
	}
	if body, err := doc.Find("body").First().Html(); err == nil && strings.TrimSpace(body) != "" {
		article.Content = body
	}
	article.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if article.Title == "" {
		article.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return article
}
