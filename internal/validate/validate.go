// Package validate flags block interstitials, paywall prompts, and search
// error pages in fetched HTML. The predicates are advisory: a false positive
// only costs one failed strategy inside a race.
package validate

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"sync"
)

// Scan windows. Block signals live in the interstitial chrome near the top of
// the document; paywall markup tends to sit a little deeper.
const (
	blockWindow   = 5 * 1024
	paywallWindow = 10 * 1024
)

//go:embed patterns.txt
var patternsFile string

// Table holds one revision of the classification pattern lists.
type Table struct {
	Version     int
	blocked     [][]byte
	paywalled   [][]byte
	googleError [][]byte
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the table parsed from the embedded resource file.
func Default() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = parseTable(patternsFile)
	})
	return defaultTable
}

// parseTable reads the section-based pattern file. Unknown sections are
// ignored so the file can grow without breaking old binaries.
func parseTable(raw string) *Table {
	t := &Table{}
	section := ""
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if v, ok := strings.CutPrefix(line, "# version:"); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					t.Version = n
				}
			}
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.Trim(line, "[]")
			continue
		}
		pattern := bytes.ToLower([]byte(line))
		switch section {
		case "blocked":
			t.blocked = append(t.blocked, pattern)
		case "paywalled":
			t.paywalled = append(t.paywalled, pattern)
		case "google-error":
			t.googleError = append(t.googleError, pattern)
		}
	}
	return t
}

// IsBlocked reports whether the document head looks like a bot-check or
// access-denied interstitial.
func (t *Table) IsBlocked(html string) bool {
	return t.matchAny(html, blockWindow, t.blocked)
}

// IsPaywalled reports whether the document head carries paywall markup or
// subscription prompts. The plain "paywall" pattern intentionally catches CSS
// class and id names that embed the word.
func (t *Table) IsPaywalled(html string) bool {
	return t.matchAny(html, paywallWindow, t.paywalled)
}

// IsGoogleErrorPage reports whether the document is Google Search's generic
// error/redirect page.
func (t *Table) IsGoogleErrorPage(html string) bool {
	return t.matchAny(html, len(html), t.googleError)
}

func (t *Table) matchAny(html string, window int, patterns [][]byte) bool {
	if html == "" || len(patterns) == 0 {
		return false
	}
	body := []byte(html)
	if len(body) > window {
		body = body[:window]
	}
	lower := bytes.ToLower(body)
	for _, p := range patterns {
		if bytes.Contains(lower, p) {
			return true
		}
	}
	return false
}
