package ports

import (
	"context"

	"depresolve/internal/types"
)

type RepoIndexBuildRequest struct {
	DescriptorRoot string
	ID             string
	Workers        int
}

type RepoIndexBuilderPort interface {
	Build(ctx context.Context, request RepoIndexBuildRequest) (types.RepoIndexFile, error)
}

type RepoIndexWriterPort interface {
	Write(path string, index types.RepoIndexFile) error
}
