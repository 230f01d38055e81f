package commands

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/sandbox"
	"fmt"
	"github.com/spf13/cobra"
)

func sampleForm() domain_models.AssessmentForm {
	age, sex, cp, bp, chol, fbs, ecg, hr, slope := 54, "M", 2, 140, 239, 0, 0, 160, 1
	angina, oldpeak := false, 1.2
	return domain_models.AssessmentForm{
		Age: &age, Sex: &sex, ChestPainType: &cp, RestingBP: &bp, Cholesterol: &chol,
		FastingBS: &fbs, RestingECG: &ecg, MaxHR: &hr, ExerciseAngina: &angina,
		Oldpeak: &oldpeak, STSlope: &slope,
	}
}

// demoCmd walks the whole flow against a sandbox backend: sign in, run an
// assessment, save a card, upgrade and list the history.
func demoCmd(app func() *App) *cobra.Command {
	var (
		email, password, planCode string
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the full client flow against the sandbox backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			user, err := a.Auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "== Logged in as %s\n", user.Email)
			if err := a.Subscription.Load(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "== Plan %s, %d checks left\n", planType(a), a.Subscription.RemainingUsage())

			a.Assessment.ResetForm()
			a.Assessment.UpdateFormData(sampleForm())
			result, err := a.Assessment.SubmitAssessment(ctx, user.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "== Assessment")
			printResult(out, *result)

			if err := a.Payment.LoadPaymentMethods(ctx, user.ID); err != nil {
				return err
			}
			if _, ok := a.Payment.GetDefaultPaymentMethod(); !ok {
				m, err := a.Payment.SavePaymentMethod(ctx, request_models.AddPaymentMethodRequest{
					UserID: user.ID, Type: string(domain_models.MethodCard), Brand: "visa", Last4: "4242", IsDefault: true,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "== Saved card %s\n", m.ID)
			}

			plan, err := findPlan(ctx, a, planCode)
			if err != nil {
				return err
			}
			p, err := a.Payment.ProcessPayment(ctx, domain_models.PaymentRequest{
				UserID: user.ID, PlanID: plan.ID, Amount: plan.Price, Currency: plan.Currency,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "== Paid %s for %s\n", money(p.Amount, p.Currency), plan.Name)

			if err := a.Subscription.LoadSubscription(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "== Plan %s, premium: %t\n", planType(a), a.Subscription.IsPremium())

			if err := a.Assessment.LoadResults(ctx, user.ID); err != nil {
				return err
			}
			fmt.Fprintf(out, "== %d assessment(s) on record\n", len(a.Assessment.State().Results))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", sandbox.DemoEmail, "account email")
	cmd.Flags().StringVar(&password, "password", sandbox.DemoPassword, "account password")
	cmd.Flags().StringVar(&planCode, "plan", "premium_monthly", "plan to buy, by id or code")
	return cmd
}

func planType(a *App) string {
	if sub := a.Subscription.State().Subscription; sub != nil {
		return fmt.Sprintf("%s until %s", sub.PlanType, day(sub.EndDate))
	}
	return "none"
}
