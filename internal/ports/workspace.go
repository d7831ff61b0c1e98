package ports

// WorkspacePort discovers project spec files within workspace roots.
type WorkspacePort interface {
	FindProjects(root string) ([]string, error)
}
