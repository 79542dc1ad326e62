// internal/app/system/uploads/uploads.go
package uploads

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectPath builds a unique storage key: <dir>/YYYY/MM/<uuid8>-<sanitized name>.
func ObjectPath(dir, filename string, now time.Time) string {
	base := filepath.Base(filepath.ToSlash(filename))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-.")
	if base == "" {
		base = "file"
	}
	name := fmt.Sprintf("%s-%s", uuid.New().String()[:8], base)
	return path.Join(strings.Trim(dir, "/"), fmt.Sprintf("%04d/%02d", now.Year(), now.Month()), name)
}

// Extension returns the lower-case extension of filename without the dot.
func Extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
