package ratelimit

import (
	"path"
	"strings"
)

// unlimited marks endpoints that are never limited
var unlimited = &Rule{Pattern: "/health", Method: "GET"}

// Match returns the rule for a request: exact patterns first, then globs,
// then the longest "/"-terminated prefix. Nil means the default limit.
func Match(urlPath, method string, rules []Rule) *Rule {
	if urlPath == "/health" && method == "GET" {
		return unlimited
	}

	for i := range rules {
		r := &rules[i]
		if r.Method == method && r.Pattern == urlPath {
			return r
		}
	}

	for i := range rules {
		r := &rules[i]
		if r.Method != method || !strings.Contains(r.Pattern, "*") {
			continue
		}
		if ok, err := path.Match(r.Pattern, urlPath); err == nil && ok {
			return r
		}
	}

	var best *Rule
	for i := range rules {
		r := &rules[i]
		if r.Method != method || !strings.HasSuffix(r.Pattern, "/") || strings.Contains(r.Pattern, "*") {
			continue
		}
		if strings.HasPrefix(urlPath, r.Pattern) && (best == nil || len(r.Pattern) > len(best.Pattern)) {
			best = r
		}
	}
	return best
}
