package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
	"depresolve/internal/core"
	"depresolve/internal/types"
)

type classpathOptions struct {
	Project   string
	Separator string
	Entries   bool
	Settings  settingsFlags
}

func newClasspathCommand() *cobra.Command {
	opts := classpathOptions{}
	cmd := &cobra.Command{
		Use:   "classpath [compile|runtime|test|provided]",
		Short: "Resolve a project and print the classpath of one scope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := string(types.ScopeCompile)
			if len(args) == 1 {
				scope = args[0]
			}
			return runClasspath(cmd.Context(), cmd, scope, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project spec path (defaults to ./depresolve.yaml)")
	cmd.Flags().StringVar(&opts.Separator, "separator", string(os.PathListSeparator), "Separator between classpath entries")
	cmd.Flags().BoolVar(&opts.Entries, "entries", false, "Print one entry per line with its module and IDE scope")
	addSettingsFlags(cmd, &opts.Settings)
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	return cmd
}

func runClasspath(ctx context.Context, cmd *cobra.Command, name string, opts classpathOptions) error {
	scope, err := core.ParseScope(name)
	if err != nil {
		return err
	}
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		ProjectPath:     resolveString(cmd, opts.Project, "project", "project"),
		ResolveSettings: resolveSettings(cmd, opts.Settings),
	})
	printHints(cmd, result.Hints)
	if err != nil {
		return err
	}
	if opts.Entries {
		for _, entry := range core.ClasspathEntries(result.Graph, scope) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", entry.Path, entry.Module, entry.IDEScope)
		}
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(result.Graph.Classpath(scope), opts.Separator))
	return nil
}
