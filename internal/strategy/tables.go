package strategy

import "math/rand/v2"

// Impersonation tables. All lists are immutable and read concurrently
// without synchronization.

var desktopAgents = []string{
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:126.0) Gecko/20100101 Firefox/126.0",
}

var googlebotAgents = []string{
	"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	"Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; Googlebot/2.1; +http://www.google.com/bot.html) Chrome/125.0.6422.175 Safari/537.36",
	"Googlebot/2.1 (+http://www.google.com/bot.html)",
}

// googleCrawlIPs are Google-owned IPv4 literals used for X-Forwarded-For
// spoofing. Origins that whitelist search engines usually check this header
// rather than the peer address.
var googleCrawlIPs = []string{
	"66.249.66.1",
	"66.249.66.19",
	"66.249.64.35",
	"66.249.65.33",
	"66.249.79.96",
	"64.233.160.15",
	"66.102.0.18",
	"72.14.199.11",
}

var bingbotAgents = []string{
	"Mozilla/5.0 (compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm)",
	"Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko; compatible; bingbot/2.0; +http://www.bing.com/bingbot.htm) Chrome/116.0.1938.76 Safari/537.36",
}

var bingCrawlIPs = []string{
	"157.55.39.1",
	"207.46.13.22",
	"40.77.167.55",
	"13.66.139.10",
	"52.167.144.30",
}

var facebookAgents = []string{
	"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
	"facebookexternalhit/1.1",
	"Facebot/1.0",
}

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}
