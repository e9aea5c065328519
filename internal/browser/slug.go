package browser

import (
	"regexp"
	"strings"
)

var (
	dashRuns = regexp.MustCompile(`-+`)
	nonSlug  = regexp.MustCompile(`[^\w-]+`)
)

// Normalize turns a path into the key its listing is cached under.
// Paths naming the same folder modulo case, surrounding slashes, spaces and
// punctuation share a key: "/Images Holidays/" and "images-holidays" both
// become "images-holidays".
func Normalize(path string) string {
	s := strings.ToLower(path)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = dashRuns.ReplaceAllString(s, "-")
	s = nonSlug.ReplaceAllString(s, "")
	// Stripping can join two dashes ("a-!-b"); fold them again so that
	// Normalize(Normalize(p)) == Normalize(p).
	return dashRuns.ReplaceAllString(s, "-")
}
