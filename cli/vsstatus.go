package cli

import (
	"fmt"
	"io"

	"fitmate/config"
	"fitmate/llmclient"

	"github.com/spf13/cobra"
)

func newVectorStoreStatusCmd() *cobra.Command {
	var vectorStoreID string

	cmd := &cobra.Command{
		Use:   "vs-status",
		Short: "Show vector store indexing status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, client, err := newAdminClient()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			if vectorStoreID == "" {
				if vectorStoreID, err = config.ReadID(cfg.IDsDir, config.VectorStoreIDFile); err != nil {
					return err
				}
			}

			status, err := client.VectorStoreStatus(cmd.Context(), vectorStoreID)
			if err != nil {
				return err
			}
			printVectorStoreStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}

	cmd.Flags().StringVar(&vectorStoreID, "vector-store", "", "vector store ID (default from the ids directory)")
	return cmd
}

func printVectorStoreStatus(w io.Writer, s llmclient.VectorStoreStatus) {
	fmt.Fprintf(w, "id:          %s\n", s.ID)
	fmt.Fprintf(w, "name:        %s\n", s.Name)
	fmt.Fprintf(w, "status:      %s\n", s.Status)
	fmt.Fprintf(w, "usage bytes: %d\n", s.UsageBytes)
	fmt.Fprintf(w, "files:       %d total, %d completed, %d in progress, %d failed, %d cancelled\n",
		s.Files.Total, s.Files.Completed, s.Files.InProgress, s.Files.Failed, s.Files.Cancelled)
}
