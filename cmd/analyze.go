package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jsm-form-agent/internal/bootstrap"
	"jsm-form-agent/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Inspect the configured request type and its fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if err := ensureCredentials(cfg); err != nil {
			return err
		}

		return bootstrap.RunOneShot(cfg, func(ctx context.Context, svc *usecase.Service) error {
			if err := svc.Desk.Authenticate(ctx); err != nil {
				return err
			}

			details, err := svc.Desk.RequestTypeDetails(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Request type:")
			fmt.Println(details)

			fields, err := svc.Desk.RequestTypeFields(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Fields:")
			fmt.Println(fields)

			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
