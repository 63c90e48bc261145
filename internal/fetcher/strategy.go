package fetcher

// Strategy is one fixed outbound request-identity profile. Strategies are
// tried in order until one yields an acceptable response.
type Strategy struct {
	Name    string
	Headers map[string]string
}

// DefaultStrategies returns the five built-in profiles: the default desktop
// browser, an alternate browser, an alternate OS, a mobile browser, and a
// declared crawler.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{
			Name: "chrome-windows",
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
				"Accept-Language": "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
				"Accept-Encoding": "gzip, deflate, br",
			},
		},
		{
			Name: "firefox-windows",
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "ko-KR,ko;q=0.8,en-US;q=0.5,en;q=0.3",
				"Accept-Encoding": "gzip, deflate, br",
			},
		},
		{
			Name: "safari-macos",
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "ko-KR,ko;q=0.9",
				"Accept-Encoding": "gzip, deflate, br",
			},
		},
		{
			Name: "mobile-safari",
			Headers: map[string]string{
				"User-Agent":      "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Mobile/15E148 Safari/604.1",
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
				"Accept-Language": "ko-KR,ko;q=0.9",
				"Accept-Encoding": "gzip, deflate, br",
			},
		},
		{
			Name: "crawler-bot",
			Headers: map[string]string{
				"User-Agent":      "siteharvest-bot/1.0 (+https://github.com/siteharvest)",
				"Accept":          "text/html,application/xhtml+xml",
				"Accept-Encoding": "gzip, deflate",
			},
		},
	}
}
