package commands

import (
	"cardiocheck/cmd/fx/account_fx"
	"cardiocheck/cmd/fx/assessment_fx"
	"cardiocheck/cmd/fx/client_fx"
	"cardiocheck/cmd/fx/config_fx"
	"cardiocheck/cmd/fx/logger_fx"
	"cardiocheck/cmd/fx/memcache_fx"
	"cardiocheck/cmd/fx/payment_service_fx"
	"cardiocheck/cmd/fx/subscription_fx"
	"cardiocheck/internal/config"
	"cardiocheck/internal/services"
	"cardiocheck/pkg/logger"
	"context"
	"errors"
	"fmt"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"io"
	"os"
	"time"
)

// App is everything a command needs, built once per invocation by fx.
type App struct {
	fx.In

	Config       config.Config
	Log          *logger.Logger
	Auth         services.AuthService
	Assessment   services.AssessmentService
	Subscription services.SubscriptionService
	Payment      services.PaymentService
	Cache        *services.StateCache
}

type session struct {
	fxApp *fx.App
	app   App
}

func (s *session) close(ctx context.Context) {
	if s == nil || s.fxApp == nil {
		return
	}
	if err := s.app.Cache.Persist(ctx); err != nil {
		s.app.Log.Warn("persist state failed", "error", err)
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.fxApp.Stop(stopCtx)
	s.fxApp = nil
}

type rootOptions struct {
	baseURL  string
	storeDSN string
	logMode  string
}

func (o rootOptions) apply(cfg config.Config) config.Config {
	if o.baseURL != "" {
		cfg.APIBaseURL = o.baseURL
	}
	if o.storeDSN != "" {
		cfg.StoreDSN = o.storeDSN
	}
	if o.logMode != "" {
		cfg.LogMode = o.logMode
	}
	return cfg
}

func openSession(ctx context.Context, opts rootOptions) (*session, error) {
	s := &session{}
	fxApp := fx.New(
		config_fx.Module,
		fx.Decorate(opts.apply),
		logger_fx.Module,
		memcache_fx.Module,
		client_fx.Module,
		assessment_fx.Module,
		subscription_fx.Module,
		payment_service_fx.Module,
		account_fx.Module,
		fx.NopLogger,
		fx.Invoke(func(app App) { s.app = app }),
	)
	if err := fxApp.Err(); err != nil {
		return nil, err
	}
	if err := fxApp.Start(ctx); err != nil {
		return nil, err
	}
	s.fxApp = fxApp

	if err := s.app.Cache.Restore(ctx); err != nil {
		s.app.Log.Warn("restore state failed", "error", err)
	}
	return s, nil
}

type cli struct {
	opts rootOptions
	sess *session
}

func (c *cli) app() *App { return &c.sess.app }

func (c *cli) command() *cobra.Command {
	root := &cobra.Command{
		Use:           "cardiocheck",
		Short:         "Heart-health self-assessment client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			c.sess, err = openSession(cmd.Context(), c.opts)
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.opts.baseURL, "api", "", "backend base URL (default from CARDIO_API_BASE_URL)")
	root.PersistentFlags().StringVar(&c.opts.storeDSN, "store", "", "credential store: memory, sqlite://path or postgres://... (default from CARDIO_STORE_DSN)")
	root.PersistentFlags().StringVar(&c.opts.logMode, "log", "", "log mode: dev, prod or quiet")

	app := c.app
	root.AddCommand(
		loginCmd(app), logoutCmd(app), refreshCmd(app), whoamiCmd(app),
		plansCmd(app), subscriptionCmd(app), subscribeCmd(app), cancelSubscriptionCmd(app),
		assessCmd(app), historyCmd(app),
		payCmd(app), paymentsCmd(app), cancelPaymentCmd(app), refundCmd(app), methodsCmd(app),
		demoCmd(app),
	)
	return root
}

// Run executes one command line. State is persisted and the fx app
// stopped whether or not the command succeeded.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := &cli{}
	root := c.command()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	c.sess.close(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintln(stderr, "Error:", userMessage(err))
	}
	return err
}

func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

// currentUser refreshes the session if it is about to expire and returns
// the logged-in user's id.
func currentUser(ctx context.Context, a *App) (string, error) {
	if !a.Auth.IsLoggedIn() {
		return "", errors.New("not logged in, run `cardiocheck login` first")
	}
	if _, err := a.Auth.EnsureFresh(ctx, time.Now()); err != nil {
		return "", err
	}
	return a.Auth.CurrentUserID()
}
