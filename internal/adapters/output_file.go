package adapters

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depresolve/internal/core"
	"depresolve/internal/ports"
	"depresolve/internal/types"
)

const (
	ReportFileName = "resolution.report"
	TreeFileName   = "dependency.tree"
)

// ClasspathFileName is the output file holding one scope's classpath.
func ClasspathFileName(scope types.ScopeTag) string {
	return "classpath." + string(scope)
}

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

// WriteClasspath writes one path per line in classpath order.
func (a OutputFileAdapter) WriteClasspath(scope types.ScopeTag, paths []string) error {
	path, err := a.ensurePath(ClasspathFileName(scope))
	if err != nil {
		return err
	}
	content := strings.Join(paths, "\n")
	if content != "" {
		content += "\n"
	}
	return writeOutput(path, []byte(content))
}

func (a OutputFileAdapter) WriteResolutionReport(report types.ResolutionReport) error {
	path, err := a.ensurePath(ReportFileName)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(report)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode resolution report").
			WithCause(err)
	}
	return writeOutput(path, data)
}

func (a OutputFileAdapter) WriteDependencyTree(tree types.TreeNode) error {
	path, err := a.ensurePath(TreeFileName)
	if err != nil {
		return err
	}
	return writeOutput(path, []byte(core.RenderTree(tree)))
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

func writeOutput(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write " + filepath.Base(path)).
			WithCause(err)
	}
	return nil
}

var _ ports.OutputPort = OutputFileAdapter{}
