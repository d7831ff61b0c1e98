package adapters

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depresolve/internal/ports"
	"depresolve/internal/types"
)

const (
	ProjectFileName   = "depresolve.yaml"
	ProjectAPIVersion = "depresolve/v1"
)

// SpecFileAdapter loads project specs. A .txt path is read as a plain-text
// dependency list and named after its directory.
type SpecFileAdapter struct {
	Text ports.DependencyTextPort
}

func NewSpecFileAdapter() SpecFileAdapter {
	return SpecFileAdapter{Text: NewDependenciesTextAdapter()}
}

func (a SpecFileAdapter) LoadProject(path string) (types.ProjectSpec, error) {
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return a.loadText(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ProjectSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("project file not found").
			WithCause(err)
	}
	var spec types.ProjectSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return types.ProjectSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse project yaml").
			WithCause(err)
	}
	if spec.APIVersion != "" && spec.APIVersion != ProjectAPIVersion {
		return types.ProjectSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported api_version " + spec.APIVersion)
	}
	spec.Path = path
	if strings.TrimSpace(spec.Metadata.Name) == "" {
		spec.Metadata.Name = projectNameFromPath(path)
	}
	return spec, nil
}

func (a SpecFileAdapter) loadText(path string) (types.ProjectSpec, error) {
	text := a.Text
	if text == nil {
		text = NewDependenciesTextAdapter()
	}
	entries, err := text.ParseFile(path)
	if err != nil {
		return types.ProjectSpec{}, err
	}
	return types.ProjectSpec{
		APIVersion:   ProjectAPIVersion,
		Metadata:     types.Metadata{Name: projectNameFromPath(path)},
		Dependencies: entries,
		Path:         path,
	}, nil
}

func projectNameFromPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return filepath.Base(filepath.Dir(abs))
}

var _ ports.ProjectSpecPort = SpecFileAdapter{}
