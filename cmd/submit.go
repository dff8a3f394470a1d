package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jsm-form-agent/internal/bootstrap"
	"jsm-form-agent/internal/entity"
	"jsm-form-agent/internal/usecase"
)

var (
	submitData     []string
	submitJSONFile string
	submitTOMLFile string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Create a service desk request from field values",
	Long: `Create a service desk request via the REST API. Field values are merged
from, in increasing priority: a TOML values file, a JSON file, and repeated
-d key=value flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if err := ensureCredentials(cfg); err != nil {
			return err
		}

		form, err := collectFormData()
		if err != nil {
			return err
		}
		if len(form.Fields) == 0 {
			return fmt.Errorf("no field values given, use -d, -j or -t")
		}

		return bootstrap.RunOneShot(cfg, func(ctx context.Context, svc *usecase.Service) error {
			if err := svc.Desk.Authenticate(ctx); err != nil {
				return err
			}

			issueKey, err := svc.Desk.CreateRequest(ctx, form)
			if err != nil {
				return err
			}

			fmt.Printf("Created request %s\n", issueKey)
			fmt.Printf("View it at %s/browse/%s\n", cfg.JsmConfig.BaseURL, issueKey)
			return nil
		})
	},
}

func collectFormData() (entity.FormData, error) {
	form := entity.FormData{Fields: map[string]any{}}

	if submitTOMLFile != "" {
		v := viper.New()
		v.SetConfigFile(submitTOMLFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return form, fmt.Errorf("read values file %s: %w", submitTOMLFile, err)
		}
		for key, value := range v.AllSettings() {
			form.Fields[key] = value
		}
	}

	if submitJSONFile != "" {
		raw, err := os.ReadFile(submitJSONFile)
		if err != nil {
			return form, fmt.Errorf("read values file %s: %w", submitJSONFile, err)
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return form, fmt.Errorf("parse %s: %w", submitJSONFile, err)
		}
		for key, value := range fields {
			form.Fields[key] = value
		}
	}

	for _, pair := range submitData {
		key, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(key) == "" {
			return form, fmt.Errorf("invalid -d value %q, expected key=value", pair)
		}
		form.Fields[strings.TrimSpace(key)] = value
	}

	return form, nil
}

func init() {
	submitCmd.Flags().StringArrayVarP(&submitData, "data", "d", nil, "field value as key=value, repeatable")
	submitCmd.Flags().StringVarP(&submitJSONFile, "json", "j", "", "JSON file with field values")
	submitCmd.Flags().StringVarP(&submitTOMLFile, "toml", "t", "", "TOML file with field values")
	rootCmd.AddCommand(submitCmd)
}
