// Package charset decodes fetched response bodies into UTF-8 strings,
// handling CJK sites that still serve GBK/GB2312 without misclassifying
// UTF-8 content that merely mentions a legacy charset.
package charset

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// metaSniffWindow bounds how far into the decoded text the meta-charset
// sniffer looks.
const metaSniffWindow = 1024

// Decode converts raw response bytes to a UTF-8 string.
//
// Header charset labels starting with "gb" (gbk, gb2312, gb18030) select GBK
// outright. Otherwise strict UTF-8 is attempted; when it succeeds but the
// first KiB declares a gb charset in a meta tag, the body is redecoded as
// GBK. Bytes that are not valid UTF-8 fall back to GBK.
func Decode(body []byte, contentType string) string {
	if headerDeclaresGB(contentType) {
		return decodeGBK(body)
	}
	if utf8.Valid(body) {
		text := string(body)
		if metaDeclaresGB(text) {
			return decodeGBK(body)
		}
		return text
	}
	return decodeGBK(body)
}

// headerDeclaresGB reports whether the Content-Type charset parameter names a
// gb-family encoding.
func headerDeclaresGB(contentType string) bool {
	lower := strings.ToLower(contentType)
	idx := strings.Index(lower, "charset=")
	if idx < 0 {
		return false
	}
	value := strings.Trim(lower[idx+len("charset="):], ` "'`)
	return strings.HasPrefix(value, "gb")
}

// metaDeclaresGB sniffs the head of an already-decoded document for a meta
// charset declaration pointing at a gb-family encoding, quoted or not.
func metaDeclaresGB(text string) bool {
	window := text
	if len(window) > metaSniffWindow {
		window = window[:metaSniffWindow]
	}
	window = strings.ToLower(window)
	for _, marker := range []string{`charset=gb`, `charset="gb`, `charset='gb`} {
		if strings.Contains(window, marker) {
			return true
		}
	}
	return false
}

func decodeGBK(body []byte) string {
	decoded, _, err := transform.Bytes(simplifiedchinese.GBK.NewDecoder(), body)
	if err != nil {
		// Undecodable bytes are passed through rather than dropped; the
		// validators and extractors downstream tolerate mojibake.
		return string(body)
	}
	return string(decoded)
}
