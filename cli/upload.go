package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fitmate/config"
	"fitmate/utils"

	"github.com/spf13/cobra"
)

func newUploadCmd() *cobra.Command {
	var vectorStoreID string

	cmd := &cobra.Command{
		Use:   "upload <documents...>",
		Short: "Upload documents into the existing vector store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, logger, client, err := newAdminClient()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			if vectorStoreID == "" {
				if vectorStoreID, err = config.ReadID(cfg.IDsDir, config.VectorStoreIDFile); err != nil {
					return fmt.Errorf("no vector store, run `fitmate bootstrap` first: %w", err)
				}
			}

			docs, err := utils.CollectDocuments(args)
			if err != nil {
				return err
			}
			preflight(docs, logger)
			counts, err := indexDocuments(ctx, client, vectorStoreID, docs, cfg.UploadConcurrency, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d of %d files into %s\n", counts.Completed, counts.Total, vectorStoreID)
			return nil
		},
	}

	cmd.Flags().StringVar(&vectorStoreID, "vector-store", "", "vector store ID (default from the ids directory)")
	return cmd
}
