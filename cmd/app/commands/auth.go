package commands

import (
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"time"
)

func loginCmd(app func() *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if email == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			user, err := a.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := a.Subscription.Load(cmd.Context(), user.ID); err != nil {
				a.Log.Warn("load subscription after login failed", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func logoutCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget cached state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			if err := a.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			a.Assessment.ClearResults()
			a.Subscription.SetSubscription(nil)
			a.Payment.SetPayments(nil)
			a.Payment.SetPaymentMethods(nil)
			if err := a.Cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func refreshCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app().Auth.RefreshSession(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func whoamiCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and plan",
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
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:    %s\n", userID)
			sub := a.Subscription.State().Subscription
			if sub == nil {
				fmt.Fprintln(out, "Plan:    none")
				return nil
			}
			fmt.Fprintf(out, "Plan:    %s (%s)\n", sub.PlanType, sub.Status)
			fmt.Fprintf(out, "Active:  %t\n", a.Subscription.IsActive(time.Now()))
			fmt.Fprintf(out, "Checks:  %d of %d left\n", a.Subscription.RemainingUsage(), sub.UsageLimit)
			return nil
		},
	}
}
