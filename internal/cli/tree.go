package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

type treeOptions struct {
	Project  string
	Plain    bool
	Settings settingsFlags
}

type treeStyles struct {
	Root       lipgloss.Style
	Retained   lipgloss.Style
	Evicted    lipgloss.Style
	Conflicted lipgloss.Style
	Unresolved lipgloss.Style
	Branch     lipgloss.Style
}

func defaultTreeStyles() treeStyles {
	return treeStyles{
		Root:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		Retained:   lipgloss.NewStyle(),
		Evicted:    lipgloss.NewStyle().Faint(true).Strikethrough(true),
		Conflicted: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		Unresolved: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")),
		Branch:     lipgloss.NewStyle().Foreground(lipgloss.Color("#444444")),
	}
}

func newTreeCommand() *cobra.Command {
	opts := treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Resolve a project and show its dependency tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTree(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project spec path (defaults to ./depresolve.yaml)")
	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "Print the tree without colors")
	addSettingsFlags(cmd, &opts.Settings)
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	return cmd
}

func runTree(ctx context.Context, cmd *cobra.Command, opts treeOptions) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		ProjectPath:     resolveString(cmd, opts.Project, "project", "project"),
		ResolveSettings: resolveSettings(cmd, opts.Settings),
	})
	printHints(cmd, result.Hints)
	if result.Graph == nil {
		return err
	}
	if opts.Plain {
		fmt.Fprint(cmd.OutOrStdout(), core.RenderTree(result.Report.Tree))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), renderStyledTree(result.Report.Tree, defaultTreeStyles()))
	}
	return err
}

// renderStyledTree draws the same layout as core.RenderTree with each line
// styled by node state.
func renderStyledTree(tree types.TreeNode, styles treeStyles) string {
	var builder strings.Builder
	builder.WriteString(styles.Root.Render(tree.Label))
	builder.WriteString("\n")
	renderStyledChildren(&builder, tree.Children, "", styles)
	return builder.String()
}

func renderStyledChildren(builder *strings.Builder, children []types.TreeNode, prefix string, styles treeStyles) {
	for i, child := range children {
		connector, indent := "├── ", "│   "
		if i == len(children)-1 {
			connector, indent = "└── ", "    "
		}
		builder.WriteString(styles.Branch.Render(prefix + connector))
		builder.WriteString(styles.forState(child.State).Render(core.TreeLine(child)))
		builder.WriteString("\n")
		renderStyledChildren(builder, child.Children, prefix+indent, styles)
	}
}

func (s treeStyles) forState(state types.NodeState) lipgloss.Style {
	switch state {
	case types.NodeEvicted:
		return s.Evicted
	case types.NodeConflicted:
		return s.Conflicted
	case types.NodeUnresolved:
		return s.Unresolved
	default:
		return s.Retained
	}
}
