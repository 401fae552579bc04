package redact

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const snippetLimit = 256

var (
	// Matches "Bearer <token>".
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)

	// key=value and "key": "value" forms that show up in upstream error bodies.
	apiKeyKVRe = regexp.MustCompile(`(?i)"?\b(api[_-]?key|aftership[_-]api[_-]key|access[_-]?token|token|password)\b"?\s*[:=]\s*"?[^\s"',&}]+"?`)

	sensitiveQueryParams = []string{"api_key", "apikey", "key", "token", "access_token"}
)

// Secrets removes obvious secret-bearing substrings from error and log strings.
// Any literal values passed in (configured API keys, proxy passwords) are masked too.
func Secrets(s string, literals ...string) string {
	if s == "" {
		return ""
	}
	out := s
	for _, lit := range literals {
		if strings.TrimSpace(lit) == "" {
			continue
		}
		out = strings.ReplaceAll(out, lit, "<redacted>")
	}
	out = bearerTokenRe.ReplaceAllString(out, "Bearer <redacted>")
	out = apiKeyKVRe.ReplaceAllString(out, "<redacted_kv>")
	return strings.TrimSpace(out)
}

// URL renders u without its userinfo password or credential query parameters.
func URL(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	if c.RawQuery != "" {
		q := c.Query()
		for _, name := range sensitiveQueryParams {
			for key := range q {
				if strings.EqualFold(key, name) {
					q.Set(key, "redacted")
				}
			}
		}
		c.RawQuery = q.Encode()
	}
	return c.Redacted()
}

// Snippet returns a short, single-line, redacted hint of a response body.
// Secrets are masked on the whole body before it is cut, and the cut never splits a rune.
func Snippet(body []byte, literals ...string) string {
	if len(body) == 0 {
		return ""
	}
	s := Secrets(string(body), literals...)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if len(s) <= snippetLimit {
		return s
	}
	cut := snippetLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
