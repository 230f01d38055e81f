package services

import (
	"cardiocheck/internal/api/client"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"cardiocheck/pkg/utils"
	"context"
	"testing"
	"time"
)

type stubAuthAPI struct {
	loginErr   error
	logoutErr  error
	loggedOut  string
	loginEmail string
}

func (s *stubAuthAPI) Login(ctx context.Context, email, password string) (response_models.LoginResponse, error) {
	s.loginEmail = email
	if s.loginErr != nil {
		return response_models.LoginResponse{}, s.loginErr
	}
	tok, _ := utils.CreateToken([]byte("k"), "u1", email, time.Hour, time.Now())
	return response_models.LoginResponse{
		TokenResponse: response_models.TokenResponse{AccessToken: tok, RefreshToken: "r1", ExpiresIn: 3600},
		User:          response_models.UserResponse{ID: "u1", Email: email},
	}, nil
}

func (s *stubAuthAPI) Logout(ctx context.Context, refreshToken string) error {
	s.loggedOut = refreshToken
	return s.logoutErr
}

type stubRefresher struct {
	calls int
	err   error
}

func (s *stubRefresher) Refresh(ctx context.Context) (response_models.TokenResponse, error) {
	s.calls++
	return response_models.TokenResponse{}, s.err
}

func newAuth(api *stubAuthAPI, ref *stubRefresher) (AuthService, *client.Credentials) {
	creds := client.NewCredentials(mem.NewStore())
	return NewAuthService(api, creds, ref, time.Minute, logger.Nop()), creds
}

func TestLoginStoresTokensAndExposesUser(t *testing.T) {
	svc, creds := newAuth(&stubAuthAPI{}, &stubRefresher{})
	user, err := svc.Login(context.Background(), "demo@cardiocheck.dev", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != "u1" || !svc.IsLoggedIn() || creds.RefreshToken() != "r1" {
		t.Fatalf("user=%+v refresh=%q", user, creds.RefreshToken())
	}
	id, err := svc.CurrentUserID()
	if err != nil || id != "u1" {
		t.Fatalf("CurrentUserID = %q, %v", id, err)
	}
}

func TestLoginFailureKeepsCredentialsEmpty(t *testing.T) {
	svc, _ := newAuth(&stubAuthAPI{loginErr: utils.NewStatusError(401, "Invalid email or password")}, &stubRefresher{})
	if _, err := svc.Login(context.Background(), "a@b.c", "bad"); utils.UserMessage(err) != "Invalid email or password" {
		t.Fatalf("err = %v", err)
	}
	if svc.IsLoggedIn() {
		t.Fatal("failed login stored a token")
	}
	if _, err := svc.CurrentUserID(); !utils.IsKind(err, utils.KindUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	api := &stubAuthAPI{logoutErr: utils.NewTransportError(errStub)}
	svc, creds := newAuth(api, &stubRefresher{})
	if _, err := svc.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if api.loggedOut != "r1" || creds.AccessToken() != "" || creds.RefreshToken() != "" {
		t.Fatal("logout did not revoke and clear")
	}
}

func TestEnsureFreshHonoursSkew(t *testing.T) {
	ref := &stubRefresher{}
	svc, creds := newAuth(&stubAuthAPI{}, ref)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := creds.Save(response_models.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 600}, now); err != nil {
		t.Fatal(err)
	}

	refreshed, err := svc.EnsureFresh(context.Background(), now)
	if err != nil || refreshed || ref.calls != 0 {
		t.Fatalf("fresh token refreshed: %v %v", refreshed, err)
	}

	refreshed, err = svc.EnsureFresh(context.Background(), now.Add(9*time.Minute+30*time.Second))
	if err != nil || !refreshed || ref.calls != 1 {
		t.Fatalf("token inside skew not refreshed: %v %v", refreshed, err)
	}

	ref.err = utils.NewUnauthenticatedError(utils.ErrNoRefreshToken)
	if _, err := svc.EnsureFresh(context.Background(), now.Add(time.Hour)); !client.IsSessionEnded(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestEnsureFreshWithoutSession(t *testing.T) {
	svc, _ := newAuth(&stubAuthAPI{}, &stubRefresher{})
	if _, err := svc.EnsureFresh(context.Background(), time.Now()); !utils.IsKind(err, utils.KindUnauthenticated) {
		t.Fatalf("err = %v", err)
	}
}
