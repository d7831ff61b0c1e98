package ports

import "depresolve/internal/types"

type OutputPort interface {
	WriteClasspath(scope types.ScopeTag, paths []string) error
	WriteResolutionReport(report types.ResolutionReport) error
	WriteDependencyTree(tree types.TreeNode) error
}
