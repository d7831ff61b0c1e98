package ports

import "depresolve/internal/types"

// DependencyTextPort parses the sectioned plain-text dependency format.
type DependencyTextPort interface {
	ParseFile(path string) ([]types.ProjectEntrySpec, error)
}
