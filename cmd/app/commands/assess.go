package commands

import (
	"cardiocheck/internal/models/domain_models"
	"cardiocheck/internal/services"
	"cardiocheck/pkg/utils"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"io"
	"sort"
	"strconv"
	"strings"
)

type formFlags struct {
	age, chestPain, restingBP, cholesterol int
	fastingBS, restingECG, maxHR, stSlope  int
	sex                                    string
	angina                                 bool
	oldpeak                                float64
}

func (f *formFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVar(&f.age, string(domain_models.FieldAge), 0, "age in years")
	fl.StringVar(&f.sex, string(domain_models.FieldSex), "", "M or F")
	fl.IntVar(&f.chestPain, string(domain_models.FieldChestPainType), 0, "chest pain type, 0-3")
	fl.IntVar(&f.restingBP, string(domain_models.FieldRestingBP), 0, "resting blood pressure, mm Hg")
	fl.IntVar(&f.cholesterol, string(domain_models.FieldCholesterol), 0, "serum cholesterol, mg/dl")
	fl.IntVar(&f.fastingBS, string(domain_models.FieldFastingBS), 0, "fasting blood sugar above 120 mg/dl, 0 or 1")
	fl.IntVar(&f.maxHR, string(domain_models.FieldMaxHR), 0, "maximum heart rate reached")
	fl.IntVar(&f.restingECG, string(domain_models.FieldRestingECG), 0, "resting ECG result, 0-2")
	fl.BoolVar(&f.angina, string(domain_models.FieldExerciseAngina), false, "exercise-induced angina")
	fl.Float64Var(&f.oldpeak, string(domain_models.FieldOldpeak), 0, "ST depression induced by exercise")
	fl.IntVar(&f.stSlope, string(domain_models.FieldSTSlope), 0, "slope of the peak exercise ST segment, 0-2")
}

// partial returns a form holding only the flags given on the command line.
func (f *formFlags) partial(cmd *cobra.Command) domain_models.AssessmentForm {
	changed := func(field domain_models.FormField) bool { return cmd.Flags().Changed(string(field)) }
	var form domain_models.AssessmentForm
	if changed(domain_models.FieldAge) {
		form.Age = &f.age
	}
	if changed(domain_models.FieldSex) {
		sex := strings.ToUpper(f.sex)
		form.Sex = &sex
	}
	if changed(domain_models.FieldChestPainType) {
		form.ChestPainType = &f.chestPain
	}
	if changed(domain_models.FieldRestingBP) {
		form.RestingBP = &f.restingBP
	}
	if changed(domain_models.FieldCholesterol) {
		form.Cholesterol = &f.cholesterol
	}
	if changed(domain_models.FieldFastingBS) {
		form.FastingBS = &f.fastingBS
	}
	if changed(domain_models.FieldMaxHR) {
		form.MaxHR = &f.maxHR
	}
	if changed(domain_models.FieldRestingECG) {
		form.RestingECG = &f.restingECG
	}
	if changed(domain_models.FieldExerciseAngina) {
		form.ExerciseAngina = &f.angina
	}
	if changed(domain_models.FieldOldpeak) {
		form.Oldpeak = &f.oldpeak
	}
	if changed(domain_models.FieldSTSlope) {
		form.STSlope = &f.stSlope
	}
	return form
}

func assessCmd(app func() *App) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Fill in the intake form and get a heart-disease risk prediction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			userID, err := currentUser(ctx, a)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			a.Assessment.ResetForm()
			a.Assessment.UpdateFormData(f.partial(cmd))
			for step := 0; step < services.TotalSteps; step++ {
				if !a.Assessment.IsStepComplete(step) {
					break
				}
				fmt.Fprintf(out, "Step %d/%d complete\n", step+1, services.TotalSteps)
				a.Assessment.NextStep()
			}

			result, err := a.Assessment.SubmitAssessment(ctx, userID)
			var subErr *services.SubmissionError
			if errors.As(err, &subErr) && retryable(err) {
				a.Log.Warn("prediction failed, retrying", "check_id", subErr.CheckID, "error", subErr.Err)
				result, err = a.Assessment.ResumeSubmission(ctx)
			}
			if err != nil {
				return err
			}
			if err := a.Subscription.LoadSubscription(ctx, userID); err != nil {
				a.Log.Warn("reload subscription failed", "error", err)
			}
			printResult(out, *result)
			fmt.Fprintf(out, "Checks left on your plan: %d\n", a.Subscription.RemainingUsage())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func retryable(err error) bool {
	return utils.IsKind(err, utils.KindTransport) || utils.IsKind(err, utils.KindServer) || utils.IsKind(err, utils.KindUnavailable)
}

func printResult(w io.Writer, r domain_models.AssessmentResult) {
	fmt.Fprintf(w, "Risk: %s (confidence %.0f%%)\n", strings.ToUpper(string(r.RiskLevel)), r.Confidence*100)
	levels := make([]string, 0, len(r.Probabilities))
	for k := range r.Probabilities {
		levels = append(levels, k)
	}
	sort.Strings(levels)
	for _, k := range levels {
		fmt.Fprintf(w, "  %-7s %5.1f%%\n", k, r.Probabilities[k]*100)
	}
	for _, rec := range r.Recommendations {
		fmt.Fprintf(w, "- %s\n", rec)
	}
}

func historyCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past assessment results, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Assessment.LoadResults(cmd.Context(), userID); err != nil {
				return err
			}
			var rows [][]string
			for _, r := range a.Assessment.State().Results {
				rows = append(rows, []string{
					r.ID, day(r.CreatedAt), strconv.Itoa(r.Age), r.Sex,
					string(r.RiskLevel), strconv.FormatFloat(r.Confidence, 'f', 2, 64),
				})
			}
			return table(cmd.OutOrStdout(), "ID\tDATE\tAGE\tSEX\tRISK\tCONFIDENCE", rows)
		},
	}
}
