package client

import (
	"cardiocheck/internal/models/response_models"
	mem "cardiocheck/pkg/memcache"
	"cardiocheck/pkg/utils"
	"errors"
	"time"
)

const (
	KeyAccessToken  = "auth.access_token"
	KeyRefreshToken = "auth.refresh_token"
	KeyExpiresAt    = "auth.expires_at"
)

// Credentials gives typed access to the tokens kept in a key/value store.
type Credentials struct {
	kv mem.KeyValueStore
}

func NewCredentials(kv mem.KeyValueStore) *Credentials {
	return &Credentials{kv: kv}
}

func (c *Credentials) AccessToken() string {
	v, _ := c.kv.Get(KeyAccessToken)
	return v
}

func (c *Credentials) RefreshToken() string {
	v, _ := c.kv.Get(KeyRefreshToken)
	return v
}

// ExpiresAt returns the access token expiry, or the zero time if unknown.
func (c *Credentials) ExpiresAt() time.Time {
	v, ok := c.kv.Get(KeyExpiresAt)
	if !ok {
		return time.Time{}
	}
	t, err := utils.ParseTimestamp(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Save persists all three values of a token exchange. Every code path that
// receives new tokens goes through here.
func (c *Credentials) Save(tokens response_models.TokenResponse, now time.Time) error {
	if tokens.AccessToken == "" {
		return errors.New("empty access token")
	}
	if err := c.kv.Set(KeyAccessToken, tokens.AccessToken); err != nil {
		return err
	}
	if err := c.kv.Set(KeyRefreshToken, tokens.RefreshToken); err != nil {
		return err
	}
	expiresAt := now.Add(time.Duration(tokens.ExpiresIn) * time.Second)
	return c.kv.Set(KeyExpiresAt, utils.FormatTimestamp(expiresAt))
}

func (c *Credentials) Clear() error {
	return c.kv.Delete(KeyAccessToken, KeyRefreshToken, KeyExpiresAt)
}
