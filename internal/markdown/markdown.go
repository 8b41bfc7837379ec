// Package markdown converts article HTML fragments into GFM-flavoured
// Markdown. The rule set is fixed: ATX headings, "-" bullets, fenced code
// blocks, "---" rules, "*"/"**" emphasis, reference-style links. Image
// handling is customized for lazy-loaded sources and relative URLs.
package markdown

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Options control a single conversion.
type Options struct {
	// BaseURL resolves relative image sources. Nil leaves them untouched.
	BaseURL *url.URL
	// PreserveImages keeps <img> and <figure> output; when false images,
	// figures, and iframes are elided entirely.
	PreserveImages bool
}

// Convert renders the HTML fragment as Markdown.
func Convert(html string, opts Options) (string, error) {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:     "atx",
		BulletListMarker: "-",
		CodeBlockStyle:   "fenced",
		HorizontalRule:   "---",
		EmDelimiter:      "*",
		StrongDelimiter:  "**",
		LinkStyle:        "referenced",
	})
	conv.AddRules(imageRules(opts)...)

	out, err := conv.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

// imageRules builds the img/figure/iframe rules for one conversion.
func imageRules(opts Options) []md.Rule {
	if !opts.PreserveImages {
		drop := func(string, *goquery.Selection, *md.Options) *string {
			return md.String("")
		}
		return []md.Rule{
			{Filter: []string{"img"}, Replacement: drop},
			{Filter: []string{"figure"}, Replacement: drop},
			{Filter: []string{"iframe"}, Replacement: drop},
		}
	}

	return []md.Rule{
		{
			Filter: []string{"img"},
			Replacement: func(_ string, sel *goquery.Selection, _ *md.Options) *string {
				return md.String(renderImage(sel, opts.BaseURL, ""))
			},
		},
		{
			Filter: []string{"figure"},
			Replacement: func(_ string, sel *goquery.Selection, _ *md.Options) *string {
				img := sel.Find("img").First()
				if img.Length() == 0 {
					return nil
				}
				caption := strings.TrimSpace(sel.Find("figcaption").First().Text())
				rendered := renderImage(img, opts.BaseURL, caption)
				if rendered == "" {
					return md.String("")
				}
				return md.String("\n\n" + rendered + "\n\n")
			},
		},
	}
}

// renderImage emits one Markdown image, or "" when the element has no usable
// source. altOverride takes precedence over the element's own alt text.
func renderImage(sel *goquery.Selection, base *url.URL, altOverride string) string {
	src := imageSource(sel)
	if src == "" {
		return ""
	}
	src = ResolveURL(base, src)

	alt := altOverride
	if alt == "" {
		alt = strings.TrimSpace(sel.AttrOr("alt", ""))
	}
	title := strings.TrimSpace(sel.AttrOr("title", ""))
	if alt == "" {
		alt = title
	}
	if alt == "" {
		alt = "image"
	}
	if title != "" && title != alt {
		return fmt.Sprintf("![%s](%s %q)", alt, src, title)
	}
	return fmt.Sprintf("![%s](%s)", alt, src)
}

// imageSource picks the real source among the lazy-loading attribute
// variants, skipping empty values and data: placeholders.
func imageSource(sel *goquery.Selection) string {
	for _, attr := range []string{"data-src", "data-lazy-src", "src"} {
		src := strings.TrimSpace(sel.AttrOr(attr, ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			continue
		}
		return src
	}
	return ""
}

// ResolveURL resolves src against base: protocol-relative sources take the
// base scheme, absolute paths take the base origin, bare relatives resolve
// against the parent directory of the base path. data: and other non-http
// schemes pass through unchanged.
func ResolveURL(base *url.URL, src string) string {
	if base == nil {
		return src
	}
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return src
	}
	if u.IsAbs() {
		return src
	}
	return base.ResolveReference(u).String()
}
