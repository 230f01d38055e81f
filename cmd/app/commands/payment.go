package commands

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/request_models"
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"strconv"
)

// findPlan accepts either a plan id or its code.
func findPlan(ctx context.Context, a *App, ref string) (domain_models.SubscriptionPlan, error) {
	if err := a.Subscription.LoadPlans(ctx); err != nil {
		return domain_models.SubscriptionPlan{}, err
	}
	for _, p := range a.Subscription.State().Plans {
		if p.ID == ref || p.Code == ref {
			return p, nil
		}
	}
	return domain_models.SubscriptionPlan{}, fmt.Errorf("unknown plan %q", ref)
}

func payCmd(app func() *App) *cobra.Command {
	var methodID string
	cmd := &cobra.Command{
		Use:   "pay <plan>",
		Short: "Pay for a plan with a saved payment method",
		Long:  "Pay for a plan, given by id or code. Without --method the default payment method is charged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			userID, err := currentUser(ctx, a)
			if err != nil {
				return err
			}
			plan, err := findPlan(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := a.Payment.LoadPaymentMethods(ctx, userID); err != nil {
				return err
			}
			if methodID != "" && !a.Payment.SelectMethod(methodID) {
				return fmt.Errorf("unknown payment method %q", methodID)
			}
			if methodID == "" {
				if _, ok := a.Payment.GetDefaultPaymentMethod(); !ok {
					return errors.New("no default payment method, add one with `cardiocheck methods add`")
				}
			}

			p, err := a.Payment.ProcessPayment(ctx, domain_models.PaymentRequest{
				UserID:   userID,
				PlanID:   plan.ID,
				Amount:   plan.Price,
				Currency: plan.Currency,
			})
			if err != nil {
				return err
			}
			if err := a.Subscription.LoadSubscription(ctx, userID); err != nil {
				a.Log.Warn("reload subscription after payment failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paid %s for %s (payment %s, %s)\n", money(p.Amount, p.Currency), plan.Name, p.ID, p.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&methodID, "method", "", "payment method id")
	return cmd
}

func paymentsCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "payments",
		Short: "List payment history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Payment.LoadPayments(cmd.Context(), userID); err != nil {
				return err
			}
			var rows [][]string
			for _, p := range a.Payment.State().Payments {
				rows = append(rows, []string{p.ID, day(p.CreatedAt), p.Plan, money(p.Amount, p.Currency), string(p.Status), p.Method})
			}
			return table(cmd.OutOrStdout(), "ID\tDATE\tPLAN\tAMOUNT\tSTATUS\tMETHOD", rows)
		},
	}
}

func refundCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <payment-id>",
		Short: "Refund a successful payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := currentUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Payment.RefundPayment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s refunded\n", args[0])
			return nil
		},
	}
}

func cancelPaymentCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-payment <payment-id>",
		Short: "Cancel a pending payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := currentUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Payment.CancelPayment(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Payment %s canceled\n", args[0])
			return nil
		},
	}
}

func methodsCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "Manage saved payment methods",
	}
	cmd.AddCommand(methodsListCmd(app), methodsAddCmd(app), methodsDeleteCmd(app), methodsDefaultCmd(app))
	return cmd
}

func methodsListCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved payment methods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Payment.LoadPaymentMethods(cmd.Context(), userID); err != nil {
				return err
			}
			var rows [][]string
			for _, m := range a.Payment.State().PaymentMethods {
				def := ""
				if m.IsDefault {
					def = "yes"
				}
				rows = append(rows, []string{m.ID, string(m.Type), m.Brand, m.Last4, def})
			}
			return table(cmd.OutOrStdout(), "ID\tTYPE\tBRAND\tLAST4\tDEFAULT", rows)
		},
	}
}

func methodsAddCmd(app func() *App) *cobra.Command {
	var (
		kind, brand, last4 string
		makeDefault        bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a payment method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			m, err := a.Payment.SavePaymentMethod(cmd.Context(), request_models.AddPaymentMethodRequest{
				UserID:    userID,
				Type:      kind,
				Brand:     brand,
				Last4:     last4,
				IsDefault: makeDefault,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %s ending %s (default: %s)\n", m.ID, m.Type, m.Last4, strconv.FormatBool(m.IsDefault))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "type", string(domain_models.MethodCard), "card, bank_account or wallet")
	cmd.Flags().StringVar(&brand, "brand", "", "card brand or bank name")
	cmd.Flags().StringVar(&last4, "last4", "", "last four digits")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default method")
	return cmd
}

func methodsDeleteCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <method-id>",
		Short: "Delete a saved payment method",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if _, err := currentUser(cmd.Context(), a); err != nil {
				return err
			}
			if err := a.Payment.DeletePaymentMethod(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func methodsDefaultCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "default <method-id>",
		Short: "Make a saved method the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Payment.LoadPaymentMethods(cmd.Context(), userID); err != nil {
				return err
			}
			if err := a.Payment.MakeDefaultMethod(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now the default method\n", args[0])
			return nil
		},
	}
}
