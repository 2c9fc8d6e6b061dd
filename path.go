package notestore

import "strings"

// cleanPath normalizes a storage path into the form used as mount table key:
// no leading or trailing slashes, empty string for the root.
func cleanPath(path string) string {
	return strings.Trim(path, "/")
}

// hasPrefix checks if path sits at or below prefix.
// Both paths should be cleaned before calling.
func hasPrefix(path, prefix string) bool {
	// Root matches everything
	if prefix == "" {
		return true
	}

	if path == prefix {
		return true
	}

	return strings.HasPrefix(path, prefix+"/")
}

// trimPrefix removes the mount prefix from a cleaned path and returns the
// remainder as a storage path rooted at "/".
func trimPrefix(path, prefix string) string {
	if prefix == "" {
		return "/" + path
	}

	rel := strings.TrimPrefix(path, prefix)
	rel = strings.TrimPrefix(rel, "/")

	return "/" + rel
}
