package browser

import "strings"

// Crumb is one step of the breadcrumb trail.
type Crumb struct {
	Name string
	Path string // location fragment of the path prefix, e.g. "#a/b"
}

// Target returns the path prefix the crumb navigates to.
func (c Crumb) Target() string {
	return DecodeHash(c.Path)
}

// BuildBreadcrumb returns the root crumb ("home") followed by one crumb per
// non-empty path segment. Every crumb path reproduces the original path up to
// and including its segment, so "/a/b" yields "#", "#/a" and "#/a/b".
//
// Empty segments get no crumb of their own: the root is always the first
// crumb, and "a//b" yields "#", "#a" and "#a//b". The later prefixes still
// carry the empty segment, so they match the original path.
func BuildBreadcrumb(path string) []Crumb {
	crumbs := []Crumb{{Name: "home", Path: "#"}}
	if path == "" {
		return crumbs
	}

	var prefix strings.Builder
	for i, part := range strings.Split(path, "/") {
		if i > 0 {
			prefix.WriteByte('/')
		}
		prefix.WriteString(part)
		if part == "" {
			continue
		}
		crumbs = append(crumbs, Crumb{Name: part, Path: EncodeHash(prefix.String())})
	}
	return crumbs
}

// Ancestors returns the breadcrumb of path without its last crumb.
func Ancestors(path string) []Crumb {
	crumbs := BuildBreadcrumb(path)
	return crumbs[:len(crumbs)-1]
}
