package client

import (
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"cardiocheck/pkg/utils"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response_models.Envelope[any]{
		Success:   success,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type harness struct {
	server *httptest.Server
	store  *mem.Store
	creds  *Credentials
	pipe   *Pipeline
	api    *API
}

func newHarness(t *testing.T, h http.Handler, timeout time.Duration) *harness {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	tr, err := NewTransport(TransportOptions{BaseURL: srv.URL, Timeout: timeout, Logger: logger.Nop()})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	store := mem.NewStore()
	creds := NewCredentials(store)
	ref := NewRefresher(tr, creds, logger.Nop())
	pipe := NewPipeline(tr, creds, ref, logger.Nop())
	return &harness{server: srv, store: store, creds: creds, pipe: pipe, api: NewAPI(pipe)}
}

func (h *harness) seed(t *testing.T, access, refresh string) {
	t.Helper()
	if err := h.creds.Save(response_models.TokenResponse{AccessToken: access, RefreshToken: refresh, ExpiresIn: 900}, time.Now()); err != nil {
		t.Fatalf("seed credentials: %v", err)
	}
}

func TestSendRefreshesOnceAndRetriesWithNewToken(t *testing.T) {
	var refreshCalls, planCalls int32
	var retriedAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		if r.Header.Get("Authorization") != "" {
			t.Errorf("refresh call must be unauthenticated")
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.RefreshToken != "refresh-1" {
			t.Errorf("refresh token = %q", body.RefreshToken)
		}
		writeEnvelope(w, http.StatusOK, true, "ok", response_models.TokenResponse{
			AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 600,
		})
	})
	mux.HandleFunc("/subscriptions/plans", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&planCalls, 1)
		if r.Header.Get("Authorization") == "Bearer access-1" {
			writeEnvelope(w, http.StatusUnauthorized, false, "token expired", nil)
			return
		}
		if n == 2 {
			retriedAuth = r.Header.Get("Authorization")
		}
		writeEnvelope(w, http.StatusOK, true, "ok", []response_models.SubscriptionPlan{{ID: "p1", Name: "Premium", PlanType: "premium"}})
	})

	h := newHarness(t, mux, time.Second)
	h.seed(t, "access-1", "refresh-1")

	plans, err := h.api.ListPlans(context.Background())
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "p1" {
		t.Fatalf("plans = %+v", plans)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
	if retriedAuth != "Bearer access-2" {
		t.Fatalf("retried request auth = %q", retriedAuth)
	}
	if h.creds.AccessToken() != "access-2" || h.creds.RefreshToken() != "refresh-2" {
		t.Fatalf("credentials not persisted: %q %q", h.creds.AccessToken(), h.creds.RefreshToken())
	}
	if h.creds.ExpiresAt().IsZero() {
		t.Fatal("expiry not persisted")
	}
}

func TestSendDoesNotRetryASecond401(t *testing.T) {
	var refreshCalls, planCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		writeEnvelope(w, http.StatusOK, true, "ok", response_models.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 600})
	})
	mux.HandleFunc("/subscriptions/plans", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&planCalls, 1)
		writeEnvelope(w, http.StatusUnauthorized, false, "", nil)
	})

	h := newHarness(t, mux, time.Second)
	h.seed(t, "access-1", "refresh-1")

	req := &Request{Method: http.MethodGet, Path: "/subscriptions/plans"}
	resp, err := h.pipe.Send(context.Background(), req)
	if !utils.IsKind(err, utils.KindUnauthenticated) {
		t.Fatalf("err = %v, want unauthenticated", err)
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected the retried 401 response to be returned as-is")
	}
	if !req.Retried() {
		t.Fatal("request should be marked retried")
	}
	if planCalls != 2 || refreshCalls != 1 {
		t.Fatalf("plan calls = %d, refresh calls = %d", planCalls, refreshCalls)
	}
	// The refresh itself succeeded so the session is kept.
	if h.creds.AccessToken() != "access-2" {
		t.Fatalf("access token = %q", h.creds.AccessToken())
	}
}

func TestSendWithoutRefreshTokenClearsCredentials(t *testing.T) {
	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	mux.HandleFunc("/checks", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "", nil)
	})

	h := newHarness(t, mux, time.Second)
	_ = h.store.Set(KeyAccessToken, "access-1")

	_, err := h.pipe.Send(context.Background(), &Request{Method: http.MethodPost, Path: "/checks", Body: map[string]int{"age": 50}})
	if !utils.IsKind(err, utils.KindUnauthenticated) || !errors.Is(err, utils.ErrNoRefreshToken) {
		t.Fatalf("err = %v", err)
	}
	if !IsSessionEnded(err) {
		t.Fatal("IsSessionEnded should be true")
	}
	if refreshCalls != 0 {
		t.Fatal("refresh endpoint must not be called without a refresh token")
	}
	if _, ok := h.store.Get(KeyAccessToken); ok {
		t.Fatal("access token should be cleared")
	}
}

func TestSendRefreshFailureClearsCredentialsAndPropagates(t *testing.T) {
	var planCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, false, "Refresh token revoked", nil)
	})
	mux.HandleFunc("/subscriptions/plans", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&planCalls, 1)
		writeEnvelope(w, http.StatusUnauthorized, false, "", nil)
	})

	h := newHarness(t, mux, time.Second)
	h.seed(t, "access-1", "refresh-1")

	_, err := h.api.ListPlans(context.Background())
	ae, ok := utils.AsAppError(err)
	if !ok || ae.Kind != utils.KindUnauthenticated || ae.Message != "Refresh token revoked" {
		t.Fatalf("err = %#v", err)
	}
	if planCalls != 1 {
		t.Fatalf("original request must not be resent after refresh failure, calls = %d", planCalls)
	}
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyExpiresAt} {
		if _, ok := h.store.Get(k); ok {
			t.Fatalf("%s should be cleared", k)
		}
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	var refreshCalls int32
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		<-release
		writeEnvelope(w, http.StatusOK, true, "ok", response_models.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 600})
	})
	mux.HandleFunc("/subscriptions/plans", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			writeEnvelope(w, http.StatusUnauthorized, false, "", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "ok", []response_models.SubscriptionPlan{})
	})

	h := newHarness(t, mux, 5*time.Second)
	h.seed(t, "access-1", "refresh-1")

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.api.ListPlans(context.Background())
			errs <- err
		}()
	}
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("ListPlans: %v", err)
		}
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
}

func TestCancelledCallerDoesNotEndSharedRefresh(t *testing.T) {
	var unauthorized, refreshCalls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&refreshCalls, 1) == 1 {
			close(entered)
		}
		<-release
		writeEnvelope(w, http.StatusOK, true, "ok", response_models.TokenResponse{AccessToken: "access-2", RefreshToken: "refresh-2", ExpiresIn: 600})
	})
	mux.HandleFunc("/subscriptions/plans", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-2" {
			atomic.AddInt32(&unauthorized, 1)
			writeEnvelope(w, http.StatusUnauthorized, false, "", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, true, "ok", []response_models.SubscriptionPlan{})
	})

	h := newHarness(t, mux, 5*time.Second)
	h.seed(t, "access-1", "refresh-1")

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() {
		_, err := h.api.ListPlans(ctxA)
		errA <- err
	}()
	go func() {
		_, err := h.api.ListPlans(context.Background())
		errB <- err
	}()

	<-entered
	deadline := time.Now().Add(2 * time.Second)
	for atomic.LoadInt32(&unauthorized) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancelA()
	if err := <-errA; err == nil {
		t.Fatal("cancelled caller: expected an error")
	}
	close(release)

	if err := <-errB; err != nil {
		t.Fatalf("live caller: %v", err)
	}
	if got := h.creds.AccessToken(); got != "access-2" {
		t.Fatalf("access token = %q, want access-2", got)
	}
	if got := h.creds.RefreshToken(); got != "refresh-2" {
		t.Fatalf("refresh token = %q, want refresh-2", got)
	}
	if got := atomic.LoadInt32(&refreshCalls); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
}

func TestSendClassifiesErrorStatusesWithoutRetry(t *testing.T) {
	cases := []struct {
		status int
		msg    string
		kind   utils.ErrorKind
		want   string
	}{
		{http.StatusBadRequest, "age is required", utils.KindBadRequest, "age is required"},
		{http.StatusForbidden, "", utils.KindForbidden, utils.MsgForbidden},
		{http.StatusNotFound, "", utils.KindNotFound, utils.MsgNotFound},
		{http.StatusInternalServerError, "stack trace", utils.KindServer, utils.MsgServer},
		{http.StatusServiceUnavailable, "", utils.KindUnavailable, utils.MsgUnavailable},
	}
	for _, tc := range cases {
		var calls int32
		h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			writeEnvelope(w, tc.status, false, tc.msg, nil)
		}), time.Second)
		h.seed(t, "access-1", "refresh-1")

		_, err := h.api.ListPlans(context.Background())
		ae, ok := utils.AsAppError(err)
		if !ok || ae.Kind != tc.kind || ae.Message != tc.want || ae.StatusCode != tc.status {
			t.Fatalf("status %d: err = %#v", tc.status, err)
		}
		if calls != 1 {
			t.Fatalf("status %d: calls = %d", tc.status, calls)
		}
	}
}

func TestSuccessFalseEnvelopeIsDomainError(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, false, "Plan is no longer offered", nil)
	}), time.Second)

	_, err := h.api.CreateSubscription(context.Background(), "u1", "p1")
	ae, ok := utils.AsAppError(err)
	if !ok || ae.Kind != utils.KindDomain || ae.Message != "Plan is no longer offered" {
		t.Fatalf("err = %#v", err)
	}
}

func TestMalformedBodyIsDomainError(t *testing.T) {
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}), time.Second)

	_, err := h.api.ListPlans(context.Background())
	ae, ok := utils.AsAppError(err)
	if !ok || ae.Code != "MALFORMED_RESPONSE" {
		t.Fatalf("err = %#v", err)
	}
}

func TestTimeoutIsTransportErrorAndNotRetried(t *testing.T) {
	var calls int32
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}), 50*time.Millisecond)

	_, err := h.api.ListPlans(context.Background())
	if !utils.IsKind(err, utils.KindTransport) {
		t.Fatalf("err = %v, want transport", err)
	}
	if utils.UserMessage(err) != utils.MsgNoResponse {
		t.Fatalf("message = %q", utils.UserMessage(err))
	}
	if calls != 1 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestSkipAuthRequestsCarryNoTokenAndSkipRecovery(t *testing.T) {
	var sawAuth string
	h := newHarness(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("Authorization")
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid email or password", nil)
	}), time.Second)
	h.seed(t, "access-1", "refresh-1")

	_, err := h.api.Login(context.Background(), "a@b.c", "wrong-password")
	if utils.UserMessage(err) != "Invalid email or password" {
		t.Fatalf("err = %v", err)
	}
	if sawAuth != "" {
		t.Fatalf("login sent Authorization %q", sawAuth)
	}
	if h.creds.RefreshToken() != "refresh-1" {
		t.Fatal("a failed login must not touch stored credentials")
	}
}
