package cli

import (
	"fmt"
	"os"
	"strings"

	"fitmate/agent"
	"fitmate/config"
	apperrors "fitmate/errors"
	"fitmate/llmclient"

	"github.com/spf13/cobra"
)

func newAssistantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Manage hosted assistants",
	}
	cmd.AddCommand(newAssistantUpdateCmd())
	return cmd
}

func newAssistantUpdateCmd() *cobra.Command {
	var (
		agentKey         string
		instructionsFile string
		attach           bool
		model            string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Push instructions to an agent's assistant and attach the vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, client, err := newAdminClient()
			if err != nil {
				return err
			}
			defer config.Cleanup()

			registry, err := agent.RegistryFromConfig(cfg, logger)
			if err != nil {
				return err
			}
			p, err := registry.Get(agentKey)
			if err != nil {
				return err
			}
			if p.AssistantID == "" {
				return apperrors.WrapErrorf(apperrors.ErrNotFound, "agent %s has no assistant, run `fitmate bootstrap`", p.Key)
			}

			spec := llmclient.AssistantSpec{Model: model, Instructions: p.Instructions}
			if instructionsFile != "" {
				data, err := os.ReadFile(instructionsFile)
				if err != nil {
					return fmt.Errorf("read instructions: %w", err)
				}
				spec.Instructions = strings.TrimSpace(string(data))
			}
			if attach {
				vsID, err := config.ReadID(cfg.IDsDir, config.VectorStoreIDFile)
				if err != nil {
					return err
				}
				spec.VectorStoreIDs = []string{vsID}
			}

			if err := client.UpdateAssistant(cmd.Context(), p.AssistantID, spec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s assistant %s\n", p.Key, p.AssistantID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentKey, "agent", agent.KeySupport, "agent whose assistant to update")
	cmd.Flags().StringVar(&instructionsFile, "instructions-file", "", "file with replacement instructions (default built-in prompt)")
	cmd.Flags().BoolVar(&attach, "attach-vector-store", true, "attach the vector store from the ids directory")
	cmd.Flags().StringVar(&model, "model", "", "model to switch the assistant to (default OPENAI_MODEL)")
	return cmd
}
