package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
)

type fingerprintOptions struct {
	Project  string
	Settings settingsFlags
}

func newFingerprintCommand() *cobra.Command {
	opts := fingerprintOptions{}
	cmd := &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the resolution fingerprint of a project",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFingerprint(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project spec path (defaults to ./depresolve.yaml)")
	addSettingsFlags(cmd, &opts.Settings)
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	return cmd
}

func runFingerprint(ctx context.Context, cmd *cobra.Command, opts fingerprintOptions) error {
	service := newAppService()
	result, err := service.Fingerprint(ctx, app.FingerprintRequest{
		ProjectPath:     resolveString(cmd, opts.Project, "project", "project"),
		ResolveSettings: resolveSettings(cmd, opts.Settings),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", result.Fingerprint, result.ProjectName, result.Repository)
	return nil
}
