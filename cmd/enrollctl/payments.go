package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matricula/matricula/internal/model"
)

func newPaymentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"pagamentos"},
		Short:   "Record payments",
	}
	cmd.AddCommand(newPaymentsAddCmd(a))
	return cmd
}

func newPaymentsAddCmd(a *app) *cobra.Command {
	var req model.RecordPaymentRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a payment for a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.StudentID < 1 {
				return errors.New("--student is required")
			}
			if req.Period == "" {
				return errors.New("--period is required")
			}
			token, err := a.token()
			if err != nil {
				return err
			}
			p, err := a.api.RecordPayment(cmd.Context(), token, req)
			if err != nil {
				return a.fail(err, "payment not recorded")
			}
			fmt.Fprintf(a.out, "Payment %d recorded for student %d (%s)\n", p.ID, p.StudentID, p.Period)
			return nil
		},
	}
	cmd.Flags().IntVar(&req.StudentID, "student", 0, "student id")
	cmd.Flags().StringVar(&req.Period, "period", "", "billing period, e.g. 2024-06")
	return cmd
}
