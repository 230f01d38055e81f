package commands

import (
	"bytes"
	"cardiocheck/internal/api/controllers"
	"cardiocheck/internal/infra"
	"cardiocheck/internal/repositories"
	"cardiocheck/internal/sandbox"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"context"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"
)

// newSandbox serves a seeded sandbox backend and returns its API base URL.
func newSandbox(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Nop()

	db, err := infra.OpenSandboxDatabase("sqlite://file:"+uuid.NewString()+"?mode=memory&cache=shared", log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { infra.CloseDatabase(db, log) })
	if err := sandbox.Seed(context.Background(), db, nil, log); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	secret := []byte("cli-secret")
	auth := sandbox.NewAuthService(repositories.NewAccountRepository(db), mem.NewStore(), sandbox.TokenConfig{
		Secret: secret, AccessTTL: time.Hour, RefreshTTL: 24 * time.Hour,
	}, nil, log)
	assessment := sandbox.NewAssessmentService(db, repositories.NewHealthCheckRepository(db), sandbox.Prediction{Risk: "low", Confidence: 0.9}, log)
	billing := sandbox.NewBillingService(db,
		repositories.NewPlanRepository(db),
		repositories.NewSubscriptionRepository(db),
		repositories.NewTransactionRepository(db),
		repositories.NewPaymentMethodRepository(db),
		nil, log)

	srv := httptest.NewServer(controllers.NewRouter(controllers.RouterConfig{
		JWTSecret:    secret,
		Account:      controllers.NewAccountController(auth),
		Assessment:   controllers.NewAssessmentController(assessment),
		Subscription: controllers.NewSubscriptionController(billing),
		Payment:      controllers.NewPaymentController(billing),
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

type cliHarness struct {
	t     *testing.T
	api   string
	store string
}

func newHarness(t *testing.T) *cliHarness {
	return &cliHarness{
		t:     t,
		api:   newSandbox(t),
		store: "sqlite://" + filepath.Join(t.TempDir(), "client.db"),
	}
}

func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	full := append([]string{"--api", h.api, "--store", h.store, "--log", "quiet"}, args...)
	err := Run(context.Background(), full, &out, &errOut)
	if err != nil {
		return out.String() + errOut.String(), err
	}
	return out.String(), nil
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func (h *cliHarness) login() {
	h.t.Helper()
	h.mustRun("login", "--email", sandbox.DemoEmail, "--password", sandbox.DemoPassword)
}

var fullForm = []string{
	"assess", "--age", "54", "--sex", "m", "--chestPainType", "2", "--restingBP", "140",
	"--cholesterol", "239", "--fastingBS", "0", "--maxHR", "160", "--restingECG", "0",
	"--exerciseAngina=false", "--oldpeak", "1.2", "--stSlope", "1",
}

func TestCLISessionSurvivesAcrossRuns(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("login", "--email", sandbox.DemoEmail, "--password", sandbox.DemoPassword)
	if !strings.Contains(out, "Logged in as") || !strings.Contains(out, sandbox.DemoEmail) {
		t.Fatalf("login output = %q", out)
	}

	out = h.mustRun("whoami")
	if !strings.Contains(out, "free (active)") {
		t.Fatalf("whoami output = %q", out)
	}
	if !strings.Contains(out, "3 of 3 left") {
		t.Fatalf("whoami usage = %q", out)
	}

	h.mustRun("logout")
	if out, err := h.run("whoami"); err == nil || !strings.Contains(out, "not logged in") {
		t.Fatalf("whoami after logout = %q, %v", out, err)
	}
}

func TestCLILoginRejectsBadPassword(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("login", "--email", sandbox.DemoEmail, "--password", "wrong")
	if err == nil {
		t.Fatalf("expected error, got %q", out)
	}
	if _, err := h.run("whoami"); err == nil {
		t.Fatal("whoami succeeded without a session")
	}
}

func TestCLIAssessAndHistory(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.mustRun(fullForm...)
	for _, want := range []string{"Step 3/3 complete", "Risk: LOW", "confidence 90%", "Checks left on your plan: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("assess output missing %q:\n%s", want, out)
		}
	}

	out = h.mustRun("history")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("history = %q, want header and one row", out)
	}
	if !strings.Contains(lines[1], "low") || !strings.Contains(lines[1], "54") {
		t.Errorf("history row = %q", lines[1])
	}
}

func TestCLIAssessRequiresEveryField(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("assess", "--age", "54", "--sex", "F")
	if err == nil {
		t.Fatalf("expected validation error, got %q", out)
	}
	if !strings.Contains(out, "Please complete all required fields") || !strings.Contains(out, "chestPainType") {
		t.Errorf("error output = %q", out)
	}
	if strings.Contains(out, "Step 1/3 complete") {
		t.Errorf("step 1 reported complete with chest pain missing: %q", out)
	}
}

func TestCLIPayForPremium(t *testing.T) {
	h := newHarness(t)
	h.login()

	if out, err := h.run("pay", "premium_monthly"); err == nil || !strings.Contains(out, "no default payment method") {
		t.Fatalf("pay without method = %q, %v", out, err)
	}

	out := h.mustRun("methods", "add", "--brand", "visa", "--last4", "4242", "--default")
	if !strings.Contains(out, "(default: true)") {
		t.Fatalf("methods add = %q", out)
	}

	out = h.mustRun("pay", "premium_monthly")
	if !strings.Contains(out, "Paid 9.99 USD") || !strings.Contains(out, "success") {
		t.Fatalf("pay = %q", out)
	}

	out = h.mustRun("subscription")
	if !strings.Contains(out, "premium") || !strings.Contains(out, "active") {
		t.Errorf("subscription = %q", out)
	}

	out = h.mustRun("payments")
	if !strings.Contains(out, "9.99 USD") || !strings.Contains(out, "success") {
		t.Errorf("payments = %q", out)
	}
	paymentID := paidID.FindStringSubmatch(h.mustRun("payments"))
	if paymentID == nil {
		t.Fatal("no payment id in history")
	}
	if out, err := h.run("cancel-payment", paymentID[1]); err == nil {
		t.Fatalf("canceling a settled payment succeeded: %q", out)
	}
	out = h.mustRun("refund", paymentID[1])
	if !strings.Contains(out, "refunded") {
		t.Errorf("refund = %q", out)
	}
}

var paidID = regexp.MustCompile(`(?m)^([0-9a-f-]{36})\s`)

func TestCLIRejectsUnknownPlan(t *testing.T) {
	h := newHarness(t)
	h.login()
	if out, err := h.run("pay", "platinum"); err == nil || !strings.Contains(out, `unknown plan "platinum"`) {
		t.Fatalf("pay platinum = %q, %v", out, err)
	}
}

func TestCLIDemoInMemory(t *testing.T) {
	api := newSandbox(t)
	var out, errOut bytes.Buffer
	err := Run(context.Background(), []string{"--api", api, "--store", "memory", "--log", "quiet", "demo"}, &out, &errOut)
	if err != nil {
		t.Fatalf("demo: %v\n%s%s", err, out.String(), errOut.String())
	}
	for _, want := range []string{"== Logged in as " + sandbox.DemoEmail, "Risk: LOW", "== Saved card", "== Paid 9.99 USD", "premium: true", "== 1 assessment(s) on record"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("demo output missing %q:\n%s", want, out.String())
		}
	}
}

func TestMoney(t *testing.T) {
	cases := map[int64]string{0: "0.00 USD", 999: "9.99 USD", 9999: "99.99 USD", -150: "-1.50 USD"}
	for amount, want := range cases {
		if got := money(amount, "usd"); got != want {
			t.Errorf("money(%d) = %q, want %q", amount, got, want)
		}
	}
}
