package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jsm-form-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file template",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("config file %s already exists, refusing to overwrite", cfgFile)
		}

		if err := config.WriteDefault(cfgFile); err != nil {
			return fmt.Errorf("write config template: %w", err)
		}

		fmt.Printf("Created %s. Fill in your organization and credentials before submitting.\n", cfgFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
