package commands

import (
	"fmt"
	"github.com/spf13/cobra"
	"strconv"
	"strings"
)

func plansCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List subscription plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Subscription.LoadPlans(cmd.Context()); err != nil {
				return err
			}
			var rows [][]string
			for _, p := range a.Subscription.State().Plans {
				name := p.Name
				if p.IsPopular {
					name += " *"
				}
				rows = append(rows, []string{p.ID, p.Code, name, money(p.Price, p.Currency), strconv.Itoa(p.DurationDays), strings.Join(p.Features, "; ")})
			}
			return table(cmd.OutOrStdout(), "ID\tCODE\tNAME\tPRICE\tDAYS\tFEATURES", rows)
		},
	}
}

func subscriptionCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subscription",
		Short: "Show the current subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Subscription.LoadSubscription(cmd.Context(), userID); err != nil {
				return err
			}
			sub := a.Subscription.State().Subscription
			if sub == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No subscription")
				return nil
			}
			return table(cmd.OutOrStdout(), "ID\tPLAN\tSTATUS\tSTART\tEND\tUSED\tLIMIT\tAUTO-RENEW", [][]string{{
				sub.ID, string(sub.PlanType), string(sub.Status), day(sub.StartDate), day(sub.EndDate),
				strconv.Itoa(sub.UsageCount), strconv.Itoa(sub.UsageLimit), strconv.FormatBool(sub.AutoRenew),
			}})
		},
	}
}

func subscribeCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <plan-id>",
		Short: "Switch to a plan without taking a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			sub, err := a.Subscription.Purchase(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed to %s until %s\n", sub.PlanType, day(sub.EndDate))
			return nil
		},
	}
}

func cancelSubscriptionCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-subscription",
		Short: "Cancel the current subscription",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			userID, err := currentUser(cmd.Context(), a)
			if err != nil {
				return err
			}
			if err := a.Subscription.LoadSubscription(cmd.Context(), userID); err != nil {
				return err
			}
			sub, err := a.Subscription.Cancel(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s is now %s\n", sub.ID, sub.Status)
			return nil
		},
	}
}
