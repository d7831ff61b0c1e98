package ports

import "depresolve/internal/types"

type ProjectSpecPort interface {
	LoadProject(path string) (types.ProjectSpec, error)
}
