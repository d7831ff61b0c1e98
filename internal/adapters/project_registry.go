package adapters

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/ports"
)

// ProjectRegistry records the runtime artifacts of projects resolved
// earlier in a workspace run so dependents can consume them.
type ProjectRegistry struct {
	mu        sync.RWMutex
	artifacts map[string][]string
}

func NewProjectRegistry() *ProjectRegistry {
	return &ProjectRegistry{artifacts: map[string][]string{}}
}

func (r *ProjectRegistry) Register(project string, artifacts []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[project] = slices.Clone(artifacts)
}

func (r *ProjectRegistry) RuntimeArtifacts(project string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifacts, ok := r.artifacts[project]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("project %s has not been resolved", project))
	}
	return slices.Clone(artifacts), nil
}

var _ ports.ProjectArtifactsPort = (*ProjectRegistry)(nil)
