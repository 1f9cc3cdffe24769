package catalog

import (
	"fmt"
	"strings"
)

// Issue is one problem found while loading a catalog.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// LoadError reports every issue found in a catalog; a catalog with any
// issue is rejected as a whole.
type LoadError struct {
	Source string  `json:"source"`
	Issues []Issue `json:"issues"`
}

func (e *LoadError) add(path, msg string) {
	e.Issues = append(e.Issues, Issue{Path: path, Message: msg})
}

func (e *LoadError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Path + ": " + issue.Message
	}
	return fmt.Sprintf("invalid catalog %s: %s", e.Source, strings.Join(parts, "; "))
}
