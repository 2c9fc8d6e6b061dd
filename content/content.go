// Package content holds the pure path-string utilities and resource
// filtering predicates shared by every storage backend.
package content

import (
	"strings"

	"github.com/averok/notestore"
)

// EnsureLeadingSlash prepends a slash if absent. Idempotent.
func EnsureLeadingSlash(path string) string {
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}

	return path
}

// EnsureTrailingSlash appends a slash if absent. Idempotent.
func EnsureTrailingSlash(path string) string {
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}

	return path
}

// StripTrailingSlash removes a trailing slash if present. Idempotent.
// The root path "/" is left untouched.
func StripTrailingSlash(path string) string {
	if path != "/" && strings.HasSuffix(path, "/") {
		return strings.TrimSuffix(path, "/")
	}

	return path
}

// RelativePath removes the base directory prefix from path.
// It additionally removes any leading slashes from the remainder.
func RelativePath(base, path string) string {
	if base == "" {
		return strings.TrimPrefix(path, "/")
	}

	if path == base {
		return ""
	}

	rel := strings.TrimPrefix(path, StripTrailingSlash(base))
	return strings.TrimPrefix(rel, "/")
}

// ParentDirectory returns the directory containing the given storage path,
// with a trailing slash. The parent of "/a/x.ipynb" and of "/a/b/" is "/a/".
func ParentDirectory(path string) string {
	p := StripTrailingSlash(path)

	idx := strings.LastIndex(p, "/")
	if idx < 0 {
		return "/"
	}

	return p[:idx+1]
}

// SelectNotebooks filters a resource collection down to notebook content.
// Directories always pass; files pass only when their path carries the
// notebook extension.
func SelectNotebooks(resources []notestore.Resource) []notestore.Resource {
	selected := make([]notestore.Resource, 0, len(resources))
	for _, resource := range resources {
		if resource.IsDirectory || IsNotebook(resource.Path) {
			selected = append(selected, resource)
		}
	}

	return selected
}

// SelectWithinDirectory filters resources down to direct children of dir
// when recursive is false. With recursive set it passes the collection
// through unchanged.
func SelectWithinDirectory(dir string, resources []notestore.Resource, recursive bool) []notestore.Resource {
	if recursive {
		return resources
	}

	dir = EnsureTrailingSlash(EnsureLeadingSlash(dir))

	selected := make([]notestore.Resource, 0, len(resources))
	for _, resource := range resources {
		if ParentDirectory(resource.Path) == dir {
			selected = append(selected, resource)
		}
	}

	return selected
}
