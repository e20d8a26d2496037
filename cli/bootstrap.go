package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"fitmate/agent"
	"fitmate/config"
	apperrors "fitmate/errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBootstrapCmd() *cobra.Command {
	var (
		agentKeys []string
		recreate  bool
		reuse     bool
	)

	cmd := &cobra.Command{
		Use:   "bootstrap [documents...]",
		Short: "Create the knowledge base and the assistants that search it",
		Long: `Uploads the knowledge base documents (DOCUMENT_PATHS, or the given paths),
indexes them into a vector store and creates or updates one assistant per agent
with file search over that store. IDs are written to the ids directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, logger, client, err := newAdminClient()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			registry, err := agent.RegistryFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			profiles, err := selectProfiles(registry, agentKeys)
			if err != nil {
				return err
			}

			opts := bootstrapOptions{
				IDsDir:          cfg.IDsDir,
				VectorStoreName: cfg.VectorStoreName,
				AssistantName:   cfg.AssistantName,
				Documents:       cfg.DocumentPaths,
				Concurrency:     cfg.UploadConcurrency,
				Agents:          profiles,
				Recreate:        recreate,
			}
			if len(args) > 0 {
				opts.Documents = args
			}
			if reuse {
				if opts.VectorStoreID, err = config.ReadID(cfg.IDsDir, config.VectorStoreIDFile); err != nil {
					return err
				}
			}

			res, err := bootstrap(ctx, client, opts, logger)
			if err != nil {
				logger.Error("Bootstrap failed", zap.Error(err))
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vector store: %s (%d files indexed)\n", res.VectorStoreID, res.Files.Completed)
			keys := make([]string, 0, len(res.Assistants))
			for k := range res.Assistants {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "%s assistant: %s\n", k, res.Assistants[k])
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&agentKeys, "agent", nil, "agents to create assistants for (default all)")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "create new assistants even when IDs already exist")
	cmd.Flags().BoolVar(&reuse, "reuse-vector-store", false, "add documents to the existing vector store")
	return cmd
}

// selectProfiles resolves agent keys, returning every agent for none.
func selectProfiles(registry *agent.Registry, keys []string) ([]agent.Profile, error) {
	if len(keys) == 0 {
		return registry.List(), nil
	}
	profiles := make([]agent.Profile, 0, len(keys))
	for _, k := range keys {
		p, err := registry.Get(k)
		if err != nil {
			return nil, apperrors.WrapErrorf(apperrors.ErrInvalidInput, "unknown agent %q", k)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
