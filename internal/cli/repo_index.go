package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"depresolve/internal/app"
)

type repoIndexOptions struct {
	Descriptors string
	Output      string
	ID          string
	Workers     int
}

func newRepoIndexCommand() *cobra.Command {
	opts := repoIndexOptions{}
	cmd := &cobra.Command{
		Use:   "repo-index",
		Short: "Generate a repository index from a tree of module descriptors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRepoIndex(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Descriptors, "descriptors", "", "Root of the module.yaml descriptor tree")
	cmd.Flags().StringVar(&opts.Output, "output", "repo-index.yaml", "Output path for repo index YAML")
	cmd.Flags().StringVar(&opts.ID, "id", "", "Repository id recorded in the index")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent descriptor readers (0 = default)")

	_ = viper.BindPFlag("repo_index_descriptors", cmd.Flags().Lookup("descriptors"))
	_ = viper.BindPFlag("repo_index_output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("repo_index_id", cmd.Flags().Lookup("id"))
	_ = viper.BindPFlag("repo_index_workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runRepoIndex(ctx context.Context, cmd *cobra.Command, opts repoIndexOptions) error {
	service := newAppService()
	result, err := service.RepoIndex(ctx, app.RepoIndexRequest{
		DescriptorRoot: resolveString(cmd, opts.Descriptors, "repo_index_descriptors", "descriptors"),
		Output:         resolveString(cmd, opts.Output, "repo_index_output", "output"),
		ID:             resolveString(cmd, opts.ID, "repo_index_id", "id"),
		Workers:        resolveInt(cmd, opts.Workers, "repo_index_workers", "workers"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote repo index: %s (%d modules, %d versions)\n", result.OutputPath, result.ModuleCount, result.EntryCount)
	return nil
}
