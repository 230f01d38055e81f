package client

import (
	"cardiocheck/internal/models/request_models"
	"cardiocheck/internal/models/response_models"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"errors"
	"golang.org/x/sync/singleflight"
	"net/http"
	"time"
)

const refreshPath = "/auth/refresh"

// Refresher exchanges the stored refresh token for a new token pair. It is
// shared by the pipeline's 401 recovery and by explicit session refreshes,
// and concurrent callers share a single exchange.
type Refresher struct {
	transport *Transport
	creds     *Credentials
	now       func() time.Time
	log       *logger.Logger
	group     singleflight.Group
}

func NewRefresher(transport *Transport, creds *Credentials, log *logger.Logger) *Refresher {
	return &Refresher{transport: transport, creds: creds, now: utils.NowUTC, log: log}
}

// Refresh returns the new tokens. On any failure of the exchange every
// stored credential is cleared before the error is returned. The shared
// exchange ignores the callers' cancellation and is bounded by the transport
// timeout; a caller whose own context ends stops waiting and gets that error
// while the credentials are left alone.
func (r *Refresher) Refresh(ctx context.Context) (response_models.TokenResponse, error) {
	ch := r.group.DoChan("refresh", func() (interface{}, error) {
		tokens, err := r.exchange(context.WithoutCancel(ctx))
		if err != nil {
			if clearErr := r.creds.Clear(); clearErr != nil {
				r.log.Error("clear credentials after failed refresh", "error", clearErr)
			}
			return nil, err
		}
		return tokens, nil
	})

	select {
	case <-ctx.Done():
		return response_models.TokenResponse{}, utils.NewTransportError(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return response_models.TokenResponse{}, res.Err
		}
		return res.Val.(response_models.TokenResponse), nil
	}
}

func (r *Refresher) exchange(ctx context.Context) (response_models.TokenResponse, error) {
	refreshToken := r.creds.RefreshToken()
	if refreshToken == "" {
		return response_models.TokenResponse{}, utils.NewUnauthenticatedError(utils.ErrNoRefreshToken)
	}

	resp, err := r.transport.Do(ctx, &Request{
		Method:   http.MethodPost,
		Path:     refreshPath,
		Body:     request_models.RefreshRequest{RefreshToken: refreshToken},
		SkipAuth: true,
	}, "")
	if err != nil {
		return response_models.TokenResponse{}, err
	}
	if !resp.OK() {
		return response_models.TokenResponse{}, classify(resp)
	}

	tokens, err := decode[response_models.TokenResponse](resp)
	if err != nil {
		return response_models.TokenResponse{}, err
	}
	if err := r.creds.Save(tokens, r.now()); err != nil {
		return response_models.TokenResponse{}, utils.NewUnauthenticatedError(err)
	}
	r.log.Info("access token refreshed", "expires_in", tokens.ExpiresIn)
	return tokens, nil
}

// Pipeline is the authenticated request path every engine uses.
type Pipeline struct {
	transport *Transport
	creds     *Credentials
	refresher *Refresher
	log       *logger.Logger
}

func NewPipeline(transport *Transport, creds *Credentials, refresher *Refresher, log *logger.Logger) *Pipeline {
	return &Pipeline{transport: transport, creds: creds, refresher: refresher, log: log}
}

// Send transmits req with the stored access token. A 401 triggers one
// refresh and one resend of this request; the resend's outcome is final.
// Non-2xx responses come back together with a classified error.
func (p *Pipeline) Send(ctx context.Context, req *Request) (*Response, error) {
	token := ""
	if !req.SkipAuth {
		token = p.creds.AccessToken()
	}

	resp, err := p.transport.Do(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && !req.SkipAuth && !req.retried {
		return p.retryWithRefresh(ctx, req)
	}
	if !resp.OK() {
		return resp, classify(resp)
	}
	return resp, nil
}

func (p *Pipeline) retryWithRefresh(ctx context.Context, req *Request) (*Response, error) {
	req.retried = true

	tokens, err := p.refresher.Refresh(ctx)
	if err != nil {
		p.log.Warn("session refresh failed", "path", req.Path, "error", err)
		return nil, err
	}

	resp, err := p.transport.Do(ctx, req, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, classify(resp)
	}
	return resp, nil
}

// call sends req and unwraps the envelope into T.
func call[T any](ctx context.Context, p *Pipeline, req *Request) (T, error) {
	resp, err := p.Send(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return decode[T](resp)
}

// IsSessionEnded reports whether err means the user has to log in again.
func IsSessionEnded(err error) bool {
	return utils.IsKind(err, utils.KindUnauthenticated) || errors.Is(err, utils.ErrNoRefreshToken)
}
