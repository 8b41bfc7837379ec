package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockedSamples imitates the interstitials the fetch strategies run into in
// the wild. Every one of them must trip IsBlocked.
var blockedSamples = []string{
	`<html><head><title>Just a moment...</title></head><body></body></html>`,
	`<html><body><h1>Checking your browser before accessing example.com</h1></body></html>`,
	`<html><body>Cloudflare Ray ID: 7f3b9c2d4e5f6a7b</body></html>`,
	`<html><body><h2>One more step</h2>Please complete the security check to access</body></html>`,
	`<html><head><title>Attention Required! | Cloudflare</title></head></html>`,
	`<html><body>Please verify you are human by completing the action below.</body></html>`,
	`<html><body><div class="g-recaptcha">CAPTCHA</div></body></html>`,
	`<html><body>Robot Check: type the characters you see in this image</body></html>`,
	`<html><body>Are you a robot? Confirm you are not a robot to continue.</body></html>`,
	`<html><head><title>Access Denied</title></head><body>You don't have permission.</body></html>`,
	`<html><body><h1>403 Forbidden</h1><hr>nginx</body></html>`,
	`<html><body>Request blocked. We can't connect to the server for this app.</body></html>`,
	`<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`,
	`<html><body>Security check: please stand by while we verify your connection.</body></html>`,
	`<html><body>This website is using a DDoS protection service.</body></html>`,
	`<html><body>Please enable JavaScript and cookies to continue.</body></html>`,
	`<html><body>Browser check in progress, you will be redirected shortly.</body></html>`,
	`<html><body>Please verify that you're not a script.</body></html>`,
	`<html><body>Opening this page, you will be redirected to the publisher in a moment.</body></html>`,
	`<html><head><title>Google News</title></head><body><noscript>redirect</noscript></body></html>`,
}

func TestIsBlockedOnFixtures(t *testing.T) {
	t.Parallel()

	table := Default()
	require.GreaterOrEqual(t, len(blockedSamples), 20)
	for i, sample := range blockedSamples {
		assert.Truef(t, table.IsBlocked(sample), "sample %d should be flagged", i)
	}
}

func TestIsBlockedPassesRealArticle(t *testing.T) {
	t.Parallel()

	table := Default()
	article := articleFixture(12_000)
	require.GreaterOrEqual(t, len(article), 10_000)
	assert.False(t, table.IsBlocked(article))
	assert.False(t, table.IsPaywalled(article))
	assert.False(t, table.IsGoogleErrorPage(article))
}

func TestIsBlockedIgnoresSignalsBeyondWindow(t *testing.T) {
	t.Parallel()

	// An article that discusses Cloudflare interstitials deep in its body is
	// not itself an interstitial.
	article := articleFixture(8_000) + "<p>The phrase checking your browser is a Cloudflare tell.</p>"
	assert.False(t, Default().IsBlocked(article))
}

func TestIsPaywalled(t *testing.T) {
	t.Parallel()

	table := Default()
	tests := []struct {
		name string
		html string
		want bool
	}{
		{name: "css class", html: `<div class="article-paywall-overlay">…</div>`, want: true},
		{name: "data attribute", html: `<section data-paywall="true">…</section>`, want: true},
		{name: "subscribe prompt", html: `<p>Subscribe to continue reading this story.</p>`, want: true},
		{name: "members only", html: `<p>This story is for members only.</p>`, want: true},
		{name: "free trial", html: `<p>Start your free trial today.</p>`, want: true},
		{name: "clean", html: `<article><p>Ordinary reporting.</p></article>`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, table.IsPaywalled(tt.html))
		})
	}
}

func TestIsGoogleErrorPage(t *testing.T) {
	t.Parallel()

	table := Default()
	assert.True(t, table.IsGoogleErrorPage(`<p>If you're having trouble accessing Google Search, try again later.</p>`))
	assert.True(t, table.IsGoogleErrorPage(`<a href="/search?emsg=SG_REL&q=x">retry</a>`))
	assert.False(t, table.IsGoogleErrorPage(`<p>Regular search results.</p>`))
}

func TestTableVersionParsed(t *testing.T) {
	t.Parallel()

	require.Equal(t, 3, Default().Version)
}

// articleFixture builds benign article HTML of at least n bytes.
func articleFixture(n int) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Quarterly grain shipments rise</title></head><body><article>")
	para := "<p>Grain shipments along the river corridor rose for the third straight quarter, " +
		"according to figures released by the port authority on Tuesday. Officials credited " +
		"milder weather and the reopening of two upstream locks.</p>"
	for b.Len() < n {
		b.WriteString(para)
	}
	b.WriteString("</article></body></html>")
	return b.String()
}
