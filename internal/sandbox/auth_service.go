package sandbox

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/internal/repositories"
	"cardiocheck/pkg/logger"
	mem "cardiocheck/pkg/memcache"
	"cardiocheck/pkg/utils"
	"context"
	"fmt"
	"strings"
	"time"
)

const refreshKeyPrefix = "refresh:"

type AuthService interface {
	Login(ctx context.Context, req request_models.LoginRequest) (response_models.LoginResponse, error)
	// Refresh rotates the refresh token: the presented one stops working.
	Refresh(ctx context.Context, refreshToken string) (response_models.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type authService struct {
	accounts repositories.AccountRepository
	tokens   *mem.Store
	cfg      TokenConfig
	now      func() time.Time
	log      *logger.Logger
}

func NewAuthService(accounts repositories.AccountRepository, tokens *mem.Store, cfg TokenConfig, now func() time.Time, log *logger.Logger) AuthService {
	if now == nil {
		now = utils.NowUTC
	}
	return &authService{
		accounts: accounts,
		tokens:   tokens,
		cfg:      cfg,
		now:      now,
		log:      log.With("service", "sandbox.AuthService"),
	}
}

func (a *authService) Login(ctx context.Context, req request_models.LoginRequest) (response_models.LoginResponse, error) {
	account, err := a.accounts.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return response_models.LoginResponse{}, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return response_models.LoginResponse{}, utils.ErrInvalidCredentials
	}
	if err := utils.ComparePasswords(account.PasswordHash, req.Password); err != nil {
		return response_models.LoginResponse{}, utils.ErrInvalidCredentials
	}

	tokens, err := a.issue(account.ID.String(), account.Email)
	if err != nil {
		return response_models.LoginResponse{}, err
	}

	a.log.Info("login", "user_id", account.ID.String())
	return response_models.LoginResponse{
		TokenResponse: tokens,
		User: response_models.UserResponse{
			ID:    account.ID.String(),
			Email: account.Email,
			Name:  account.Name,
		},
	}, nil
}

func (a *authService) Refresh(ctx context.Context, refreshToken string) (response_models.TokenResponse, error) {
	userID, ok := a.tokens.Consume(refreshKeyPrefix + refreshToken)
	if !ok {
		return response_models.TokenResponse{}, utils.ErrTokenRevoked
	}

	account, err := a.accounts.FindById(ctx, userID)
	if err != nil {
		return response_models.TokenResponse{}, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return response_models.TokenResponse{}, utils.ErrTokenRevoked
	}

	a.log.Debug("refresh token rotated", "user_id", userID)
	return a.issue(userID, account.Email)
}

func (a *authService) Logout(ctx context.Context, refreshToken string) error {
	return a.tokens.Delete(refreshKeyPrefix + refreshToken)
}

func (a *authService) issue(userID, email string) (response_models.TokenResponse, error) {
	access, err := utils.CreateToken(a.cfg.Secret, userID, email, a.cfg.AccessTTL, a.now())
	if err != nil {
		return response_models.TokenResponse{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.GenerateSecureToken(32)
	if err != nil {
		return response_models.TokenResponse{}, fmt.Errorf("generate refresh token: %w", err)
	}
	a.tokens.SetWithTTL(refreshKeyPrefix+refresh, userID, a.cfg.RefreshTTL)

	return response_models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(a.cfg.AccessTTL / time.Second),
	}, nil
}
