package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:     "jsm-form-agent",
	Short:   "Automates JSM (Jira Service Management) web form completion",
	Version: Version,
}

// Execute runs the root command; all CLI parsing and dispatch happens here.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "jsm_config.pvt.toml", "path to the config file")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
