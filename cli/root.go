package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fitmate",
	Short: "FitMate, the Anytime Fitness chat assistant",
	Long: `FitMate answers member questions through hosted assistants: a club support
agent, a personal trainer that lays out workout plans and a nutrition guide.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Try to load .env file from current directory (ignore error if file doesn't exist)
		_ = godotenv.Load()
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("ids-dir", "", "directory holding vector store and assistant IDs")
	rootCmd.PersistentFlags().String("backend", "", `assistant backend, "assistants" or "completions"`)

	mustBind("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))
	mustBind("IDS_DIR", rootCmd.PersistentFlags().Lookup("ids-dir"))
	mustBind("ASSISTANT_BACKEND", rootCmd.PersistentFlags().Lookup("backend"))

	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newFormatCmd(),
		newBootstrapCmd(),
		newUploadCmd(),
		newVectorStoreStatusCmd(),
		newAssistantCmd(),
	)
}
