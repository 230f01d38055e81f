package services

import (
	"cardiocheck/internal/api/client"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"errors"
	"time"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (response_models.LoginResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// SessionRefresher is satisfied by *client.Refresher.
type SessionRefresher interface {
	Refresh(ctx context.Context) (response_models.TokenResponse, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (response_models.UserResponse, error)
	Logout(ctx context.Context) error
	RefreshSession(ctx context.Context) error
	// EnsureFresh refreshes when the access token expires within the
	// configured skew of now. It reports whether a refresh happened.
	EnsureFresh(ctx context.Context, now time.Time) (bool, error)
	IsLoggedIn() bool
	CurrentUserID() (string, error)
}

type authService struct {
	api       AuthAPI
	creds     *client.Credentials
	refresher SessionRefresher
	skew      time.Duration
	now       func() time.Time
	log       *logger.Logger
}

func NewAuthService(api AuthAPI, creds *client.Credentials, refresher SessionRefresher, skew time.Duration, log *logger.Logger) AuthService {
	return &authService{
		api:       api,
		creds:     creds,
		refresher: refresher,
		skew:      skew,
		now:       utils.NowUTC,
		log:       log.With("service", "AuthService"),
	}
}

func (a *authService) Login(ctx context.Context, email, password string) (response_models.UserResponse, error) {
	resp, err := a.api.Login(ctx, email, password)
	if err != nil {
		return response_models.UserResponse{}, err
	}
	if err := a.creds.Save(resp.TokenResponse, a.now()); err != nil {
		return response_models.UserResponse{}, err
	}
	a.log.Info("logged in", "user_id", resp.User.ID, "email", resp.User.Email)
	return resp.User, nil
}

// Logout tells the server to revoke the refresh token when there is one.
// Local credentials are cleared whatever the server says.
func (a *authService) Logout(ctx context.Context) error {
	if refresh := a.creds.RefreshToken(); refresh != "" {
		if err := a.api.Logout(ctx, refresh); err != nil {
			a.log.Warn("remote logout failed", "error", err)
		}
	}
	return a.creds.Clear()
}

func (a *authService) RefreshSession(ctx context.Context) error {
	_, err := a.refresher.Refresh(ctx)
	return err
}

func (a *authService) EnsureFresh(ctx context.Context, now time.Time) (bool, error) {
	if a.creds.RefreshToken() == "" {
		if a.creds.AccessToken() == "" {
			return false, utils.NewUnauthenticatedError(utils.ErrNoRefreshToken)
		}
		return false, nil
	}
	expiresAt := a.creds.ExpiresAt()
	if a.creds.AccessToken() != "" && !expiresAt.IsZero() && expiresAt.Sub(now) > a.skew {
		return false, nil
	}
	if err := a.RefreshSession(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (a *authService) IsLoggedIn() bool {
	return a.creds.AccessToken() != ""
}

// CurrentUserID reads the subject from the stored access token without
// verifying it; the client has no signing key.
func (a *authService) CurrentUserID() (string, error) {
	token := a.creds.AccessToken()
	if token == "" {
		return "", utils.NewUnauthenticatedError(errors.New("no access token stored"))
	}
	claims, err := utils.ReadClaims(token)
	if err != nil {
		return "", utils.NewUnauthenticatedError(err)
	}
	id := claims.SubjectID()
	if id == "" {
		return "", utils.NewUnauthenticatedError(errors.New("access token has no subject"))
	}
	return id, nil
}
