package content

import (
	"path"
	"strings"
)

// NotebookExtension is the file extension selected by the notebook content
// policy.
const NotebookExtension = ".ipynb"

const (
	DescriptionFolder   = "Folder"
	DescriptionNotebook = "IPython Notebook"
	DescriptionFile     = "File"
)

// ExtensionToDescription maps file extensions to classification labels.
var ExtensionToDescription = map[string]string{
	".ipynb": DescriptionNotebook,
	".txt":   "Text",
	".md":    "Markdown",
	".py":    "Python Source",
	".sql":   "SQL Source",
	".json":  "JSON",
	".csv":   "CSV",
	".yaml":  "YAML",
	".yml":   "YAML",
}

// IsNotebook reports whether the path matches the notebook content policy.
func IsNotebook(p string) bool {
	return strings.ToLower(path.Ext(StripTrailingSlash(p))) == NotebookExtension
}

// Description derives a classification label purely from the path string.
// Directory paths (trailing slash) are folders; files are classified by
// extension.
func Description(p string) string {
	if strings.HasSuffix(p, "/") {
		return DescriptionFolder
	}

	ext := strings.ToLower(path.Ext(p))
	if label, exists := ExtensionToDescription[ext]; exists {
		return label
	}

	return DescriptionFile
}
