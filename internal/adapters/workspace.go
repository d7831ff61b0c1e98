package adapters

import (
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/ports"
)

type WorkspaceAdapter struct{}

func NewWorkspaceAdapter() WorkspaceAdapter {
	return WorkspaceAdapter{}
}

// FindProjects returns every project file below root in lexical order.
func (a WorkspaceAdapter) FindProjects(root string) ([]string, error) {
	var paths []string
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("workspace root is empty")
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipWorkspaceDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ProjectFileName {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan workspace").
			WithCause(err)
	}
	sort.Strings(paths)
	return paths, nil
}

func shouldSkipWorkspaceDir(name string) bool {
	switch name {
	case "build", "target", "out", ".git", "node_modules", ".gradle", ".idea":
		return true
	default:
		return false
	}
}

var _ ports.WorkspacePort = WorkspaceAdapter{}
