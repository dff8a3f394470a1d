package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"jsm-form-agent/internal/bootstrap"
	"jsm-form-agent/internal/config"
	"jsm-form-agent/internal/entity"
	"jsm-form-agent/internal/usecase"
)

var (
	riskTicketID   string
	riskValuesFile string
)

var riskAssessmentCmd = &cobra.Command{
	Use:   "risk-assessment",
	Short: "Fill in the risk assessment form of an existing ticket through the browser",
	Long: `Open the ticket page in a browser, drive the login flow if the session
has expired, then fill in and save the embedded risk assessment form using
values from the risk_assessment section of a TOML file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}

		risk, err := config.LoadRiskAssessment(riskValuesFile)
		if err != nil {
			return err
		}

		return bootstrap.RunOneShot(cfg, func(ctx context.Context, svc *usecase.Service) error {
			assessment, err := svc.Assessment.CompleteRiskAssessment(ctx, riskTicketID, risk)
			if err != nil {
				return err
			}

			printAssessment(assessment)
			return nil
		})
	},
}

func printAssessment(assessment *entity.Assessment) {
	fmt.Printf("Risk assessment %s for ticket %s: %s\n", assessment.ID, assessment.TicketID, assessment.Status)
	for _, step := range assessment.Steps {
		marker := "ok"
		if !step.Success {
			marker = "failed"
		}
		fmt.Printf("  [%s] %s: %s\n", marker, step.Phase, step.Description)
	}
}

func init() {
	riskAssessmentCmd.Flags().StringVarP(&riskTicketID, "ticket-id", "i", "", "ticket key, e.g. ITH-66035")
	riskAssessmentCmd.Flags().StringVarP(&riskValuesFile, "toml", "t", "", "TOML file with a risk_assessment section")
	_ = riskAssessmentCmd.MarkFlagRequired("ticket-id")
	_ = riskAssessmentCmd.MarkFlagRequired("toml")
	rootCmd.AddCommand(riskAssessmentCmd)
}
