package adapters

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"depresolve/internal/ports"
	"depresolve/internal/types"
)

// DependenciesTextAdapter reads the sectioned plain-text dependency list:
//
//	== COMPILE ==
//	org.acme:core:1.2 exclude=org.legacy:*
//	== RUNTIME ==
//	org.h2:h2:2.2 transitivity=none
//
// Lines before the first section header are compile dependencies.
type DependenciesTextAdapter struct{}

func NewDependenciesTextAdapter() DependenciesTextAdapter {
	return DependenciesTextAdapter{}
}

func (a DependenciesTextAdapter) ParseFile(path string) ([]types.ProjectEntrySpec, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("dependency file not found").
			WithCause(err)
	}
	defer file.Close()
	return a.Parse(file, path)
}

// Parse reads entries from r; name only labels error messages.
func (a DependenciesTextAdapter) Parse(r io.Reader, name string) ([]types.ProjectEntrySpec, error) {
	var entries []types.ProjectEntrySpec
	scope := types.ScopeCompile
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if section, ok := sectionHeader(line); ok {
			parsed, err := sectionScope(section)
			if err != nil {
				return nil, textError(name, lineNo, err.Error())
			}
			scope = parsed
			continue
		}
		entry, err := parseTextEntry(line, scope)
		if err != nil {
			return nil, textError(name, lineNo, err.Error())
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to read %s", name)).
			WithCause(err)
	}
	return entries, nil
}

func sectionHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "==") || !strings.HasSuffix(line, "==") || len(line) < 4 {
		return "", false
	}
	return strings.TrimSpace(strings.Trim(line, "=")), true
}

func sectionScope(section string) (types.ScopeTag, error) {
	switch strings.ToUpper(section) {
	case "COMPILE":
		return types.ScopeCompile, nil
	case "RUNTIME":
		return types.ScopeRuntime, nil
	case "TEST":
		return types.ScopeTest, nil
	case "PROVIDED":
		return types.ScopeProvided, nil
	default:
		return "", fmt.Errorf("unknown section %q", section)
	}
}

func parseTextEntry(line string, scope types.ScopeTag) (types.ProjectEntrySpec, error) {
	fields := strings.Fields(line)
	spec := types.DependencyEntrySpec{
		Module: fields[0],
		Scopes: []string{string(scope)},
	}
	for _, token := range fields[1:] {
		key, value, ok := strings.Cut(token, "=")
		if !ok || value == "" {
			return types.ProjectEntrySpec{}, fmt.Errorf("invalid token %q", token)
		}
		switch key {
		case "transitivity":
			spec.Transitivity = value
		case "exclude":
			spec.Exclusions = append(spec.Exclusions, strings.Split(value, ",")...)
		default:
			return types.ProjectEntrySpec{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return types.ProjectEntrySpec{DependencyEntrySpec: spec}, nil
}

func textError(name string, line int, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("%s:%d: %s", name, line, reason))
}

var _ ports.DependencyTextPort = DependenciesTextAdapter{}
