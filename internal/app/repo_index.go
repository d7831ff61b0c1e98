package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/ports"
)

// RepoIndex compiles a descriptor tree into a single repository index
// file.
func (s Service) RepoIndex(ctx context.Context, req RepoIndexRequest) (RepoIndexResult, error) {
	output := strings.TrimSpace(req.Output)
	if output == "" {
		return RepoIndexResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("repo index output path is required")
	}
	index, err := s.RepoIndexBuild.Build(ctx, ports.RepoIndexBuildRequest{
		DescriptorRoot: strings.TrimSpace(req.DescriptorRoot),
		ID:             strings.TrimSpace(req.ID),
		Workers:        req.Workers,
	})
	if err != nil {
		return RepoIndexResult{}, err
	}
	if err := s.RepoIndexWriter.Write(output, index); err != nil {
		return RepoIndexResult{}, err
	}
	entries := 0
	for _, versions := range index.Modules {
		entries += len(versions)
	}
	return RepoIndexResult{
		OutputPath:  output,
		ModuleCount: len(index.Modules),
		EntryCount:  entries,
	}, nil
}
