package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/workflow-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "workflow-cli",
	Short: "Lead qualification and support ticket triage workflows",
	Long:  "Fetches a lead or support case from Salesforce, enriches it from SAP, scores or classifies it, routes it and executes the follow-up actions.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
