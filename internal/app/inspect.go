package app

import (
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/adapters"
	"depresolve/internal/types"
)

// Inspect reads back the files a resolve run wrote to an output directory.
func (s Service) Inspect(req InspectRequest) (InspectResult, error) {
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		return InspectResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is required")
	}
	report, err := s.OutputReader.ReadResolutionReport(filepath.Join(outputDir, adapters.ReportFileName))
	if err != nil {
		return InspectResult{}, err
	}
	classpaths := make(map[types.ScopeTag][]string, len(types.AllScopes))
	for _, scope := range types.AllScopes {
		paths, err := s.OutputReader.ReadClasspath(filepath.Join(outputDir, adapters.ClasspathFileName(scope)))
		if err != nil {
			return InspectResult{}, err
		}
		classpaths[scope] = paths
	}
	return InspectResult{
		Project:     report.Project,
		Fingerprint: report.Fingerprint,
		Classpaths:  classpaths,
		Errors:      report.Errors,
		Warnings:    report.Warnings,
		Records:     report.Records,
		Tree:        report.Tree,
	}, nil
}
