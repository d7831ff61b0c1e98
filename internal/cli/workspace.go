package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
)

type workspaceOptions struct {
	Roots     []string
	OutputDir string
	Workers   int
	SBOM      bool
	Settings  settingsFlags
}

func newWorkspaceCommand() *cobra.Command {
	opts := workspaceOptions{}
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Resolve every project found under the workspace roots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkspace(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringSliceVar(&opts.Roots, "root", nil, "Workspace root(s) (defaults to .)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "", "Output directory; each project writes to <output>/<project>")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Projects resolved concurrently within one layer")
	cmd.Flags().BoolVar(&opts.SBOM, "sbom", false, "Also write an SPDX SBOM per project")
	addSettingsFlags(cmd, &opts.Settings)

	_ = viper.BindPFlag("workspace", cmd.Flags().Lookup("root"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("sbom", cmd.Flags().Lookup("sbom"))
	return cmd
}

func runWorkspace(ctx context.Context, cmd *cobra.Command, opts workspaceOptions) error {
	service := newAppService()
	result, err := service.ResolveAll(ctx, app.WorkspaceRequest{
		Roots:           resolveStrings(cmd, opts.Roots, "workspace", "root"),
		OutputDir:       resolveString(cmd, opts.OutputDir, "output", "output"),
		Workers:         resolveInt(cmd, opts.Workers, "workers", "workers"),
		SBOM:            resolveBool(cmd, opts.SBOM, "sbom", "sbom"),
		ResolveSettings: resolveSettings(cmd, opts.Settings),
	})
	out := cmd.OutOrStdout()
	for i, layer := range result.Layers {
		fmt.Fprintf(out, "layer %d: %s\n", i, strings.Join(layer, ", "))
	}
	for _, project := range result.Projects {
		fmt.Fprintf(out, "resolved: %s (%s)\n", project.ProjectName, project.Fingerprint)
	}
	return err
}
