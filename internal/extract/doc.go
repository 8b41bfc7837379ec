// Package extract pulls the main article out of fetched HTML: structured
// data first (JSON-LD), then a readability pass, then a plain body fallback.
package extract
