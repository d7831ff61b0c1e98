package types

import "strings"

// ModuleID identifies a module independently of its version.
type ModuleID struct {
	Group      string
	Name       string
	Classifier string
}

func (m ModuleID) String() string {
	if m.Classifier == "" {
		return m.Group + ":" + m.Name
	}
	return m.Group + ":" + m.Name + ":" + m.Classifier
}

// Key is the group:name pair used for conflict detection and exclusions.
// Classifier variants of one module compete for the same slot.
func (m ModuleID) Key() string {
	return m.Group + ":" + m.Name
}

func (m ModuleID) IsZero() bool {
	return strings.TrimSpace(m.Group) == "" && strings.TrimSpace(m.Name) == ""
}

// ModuleCoordinate pairs a module with a version constraint. The version
// may be exact, a range, or a dynamic marker such as "latest".
type ModuleCoordinate struct {
	Module  ModuleID
	Version string
}

func (c ModuleCoordinate) String() string {
	if c.Version == "" {
		return c.Module.String()
	}
	return c.Module.String() + ":" + c.Version
}

// Declaration is a direct dependency request. Build it with
// core.NewDeclaration; the slices are owned by the declaration and must
// not be modified after construction.
type Declaration struct {
	Coordinate   ModuleCoordinate
	Scopes       ScopeSet
	Transitivity Transitivity
	Exclusions   []string
}

// FileDependency references artifacts directly: either local files or the
// build output of another project in the same workspace.
type FileDependency struct {
	Paths   []string
	Project string
	Scopes  ScopeSet
}

func (f FileDependency) Label() string {
	if f.Project != "" {
		return "project:" + f.Project
	}
	return "files:" + strings.Join(f.Paths, ",")
}

// DependencyEntry is one element of a DeclarationSet. Exactly one of
// Module and File is set.
type DependencyEntry struct {
	Module *Declaration
	File   *FileDependency
}

// DeclarationSet is the ordered list of a project's direct dependencies.
type DeclarationSet struct {
	Project string
	Entries []DependencyEntry
}

func (d DeclarationSet) Declarations() []Declaration {
	var out []Declaration
	for _, entry := range d.Entries {
		if entry.Module != nil {
			out = append(out, *entry.Module)
		}
	}
	return out
}

func (d DeclarationSet) Files() []FileDependency {
	var out []FileDependency
	for _, entry := range d.Entries {
		if entry.File != nil {
			out = append(out, *entry.File)
		}
	}
	return out
}
