package markdown

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestConvertBasicStructure(t *testing.T) {
	t.Parallel()

	html := `<h1>Title</h1><h2>Sub</h2><p>Some <em>emphasized</em> and <strong>bold</strong> text.</p>
	<ul><li>first</li><li>second</li></ul><hr>
	<pre><code>x := 1
	y := 2</code></pre>`

	out, err := Convert(html, Options{PreserveImages: true})
	require.NoError(t, err)

	assert.Contains(t, out, "# Title")
	assert.Contains(t, out, "## Sub")
	assert.Contains(t, out, "*emphasized*")
	assert.Contains(t, out, "**bold**")
	assert.Contains(t, out, "- first")
	assert.Contains(t, out, "- second")
	assert.Contains(t, out, "---")
	assert.Contains(t, out, "```")
}

func TestConvertImageLazySourceAndRelativeResolution(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://ex.com/x/y.html")
	html := `<p><img data-src="/a/b.png" src="data:image/png;base64,AAAA" alt=""></p>`

	out, err := Convert(html, Options{BaseURL: base, PreserveImages: true})
	require.NoError(t, err)
	assert.Contains(t, out, "![image](https://ex.com/a/b.png)")
	assert.NotContains(t, out, "data:image")
}

func TestConvertImageVariants(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://ex.com/x/y.html")
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "protocol relative",
			html: `<img src="//cdn.ex.com/i.jpg" alt="pic">`,
			want: "![pic](https://cdn.ex.com/i.jpg)",
		},
		{
			name: "bare relative resolves against parent dir",
			html: `<img src="img/i.jpg" alt="pic">`,
			want: "![pic](https://ex.com/x/img/i.jpg)",
		},
		{
			name: "absolute passes through",
			html: `<img src="https://other.test/i.jpg" alt="pic">`,
			want: "![pic](https://other.test/i.jpg)",
		},
		{
			name: "title distinct from alt",
			html: `<img src="/i.jpg" alt="pic" title="The caption">`,
			want: `![pic](https://ex.com/i.jpg "The caption")`,
		},
		{
			name: "title only becomes alt",
			html: `<img src="/i.jpg" title="Only title">`,
			want: `![Only title](https://ex.com/i.jpg)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := Convert(tt.html, Options{BaseURL: base, PreserveImages: true})
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestConvertImageAllPlaceholdersDropped(t *testing.T) {
	t.Parallel()

	out, err := Convert(`<p>before</p><img src="data:image/gif;base64,AA"><p>after</p>`, Options{PreserveImages: true})
	require.NoError(t, err)
	assert.NotContains(t, out, "![")
}

func TestConvertFigureUsesCaption(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://ex.com/a/b.html")
	html := `<figure><img data-src="/pics/chart.png" alt="ignored"><figcaption>Quarterly totals</figcaption></figure>`

	out, err := Convert(html, Options{BaseURL: base, PreserveImages: true})
	require.NoError(t, err)
	assert.Contains(t, out, "![Quarterly totals](https://ex.com/pics/chart.png)")
}

func TestConvertPreserveImagesFalseElidesMedia(t *testing.T) {
	t.Parallel()

	html := `<p>text</p><img src="/i.jpg" alt="pic"><figure><img src="/j.jpg"><figcaption>c</figcaption></figure><iframe src="https://emb.test/v"></iframe>`
	out, err := Convert(html, Options{PreserveImages: false})
	require.NoError(t, err)

	assert.Contains(t, out, "text")
	assert.NotContains(t, out, "![")
	assert.NotContains(t, out, "i.jpg")
	assert.NotContains(t, out, "emb.test")
}

func TestConvertReferenceStyleLinks(t *testing.T) {
	t.Parallel()

	out, err := Convert(`<p><a href="https://example.com/doc">the document</a></p>`, Options{PreserveImages: true})
	require.NoError(t, err)
	assert.Contains(t, out, "[the document]")
	assert.Contains(t, out, "https://example.com/doc")
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	base := mustParse(t, "https://ex.com/x/y.html")
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "data uri untouched", src: "data:image/png;base64,AA", want: "data:image/png;base64,AA"},
		{name: "mailto untouched", src: "mailto:a@b.c", want: "mailto:a@b.c"},
		{name: "absolute untouched", src: "https://o.test/p.png", want: "https://o.test/p.png"},
		{name: "protocol relative", src: "//cdn.test/p.png", want: "https://cdn.test/p.png"},
		{name: "absolute path", src: "/a/b.png", want: "https://ex.com/a/b.png"},
		{name: "bare relative", src: "a/b.png", want: "https://ex.com/x/a/b.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveURL(base, tt.src))
		})
	}

	assert.Equal(t, "/same.png", ResolveURL(nil, "/same.png"))
}
