package notestore

// Resource represents one entry exposed through the storage namespace.
// Resources are constructed fresh on every List call from live backend state
// and are never cached or mutated after being returned.
type Resource struct {
	// Canonical storage path. Always carries a leading slash and carries a
	// trailing slash if and only if the entry is a directory.
	Path string `json:"path"`

	// Path of this resource relative to the directory that was listed,
	// without a leading slash.
	RelativePath string `json:"relative_path"`

	// Directories never carry content, only nested resources.
	IsDirectory bool `json:"is_directory"`

	// Classification label derived purely from the path.
	Description string `json:"description"`

	// RFC3339 timestamp, attached after enumeration by a metadata lookup.
	// Empty until metadata has been attached.
	LastModified string `json:"last_modified,omitempty"`
}
