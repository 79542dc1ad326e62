// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once   sync.Once
	policy *bluemonday.Policy
)

func contentPolicy() *bluemonday.Policy {
	once.Do(func() {
		p := bluemonday.UGCPolicy()
		p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td", "caption")
		p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		p.AllowAttrs("class").OnElements("table", "code", "pre")
		policy = p
	})
	return policy
}

// Sanitize strips scripts, event handlers, iframes and unsafe URLs from
// rich post content, keeping ordinary formatting, links and tables.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return contentPolicy().Sanitize(html)
}
