package adapters

import (
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depresolve/internal/ports"
	"depresolve/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadClasspath(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("classpath file not found").
			WithCause(err)
	}
	var paths []string
	for _, line := range strings.Split(string(content), "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths, nil
}

func (a OutputReaderAdapter) ReadResolutionReport(path string) (types.ResolutionReport, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("resolution.report not found").
			WithCause(err)
	}
	var report types.ResolutionReport
	if err := yaml.Unmarshal(content, &report); err != nil {
		return types.ResolutionReport{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid resolution.report format").
			WithCause(err)
	}
	return report, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
