package render

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	fragmentPolicyOnce sync.Once
	fragmentPolicy     *bluemonday.Policy
)

// Sanitize strips anything from html that a display fragment may not carry.
func Sanitize(html string) string {
	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(fragmentSanitizer().Sanitize(trimmed))
}

func fragmentSanitizer() *bluemonday.Policy {
	fragmentPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		policy.AllowElements("table", "thead", "tbody", "tr", "th", "td", "ul", "li")
		fragmentPolicy = policy
	})
	return fragmentPolicy
}
