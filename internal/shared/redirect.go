package shared

import (
	"net/url"
	"strings"
)

// LocalPath keeps redirect targets on-site. Absolute URLs,
// protocol-relative paths, unparseable values and the empty string all
// collapse to fallback.
func LocalPath(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	if _, err := url.Parse(target); err != nil {
		return fallback
	}
	return target
}
