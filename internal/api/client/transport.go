package client

import (
	"bytes"
	"cardiocheck/pkg/logger"
	"cardiocheck/pkg/utils"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

// Request is one logical API call. Body is JSON encoded when non-nil.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// SkipAuth sends the request without credentials and without 401
	// recovery. Used by the auth endpoints themselves.
	SkipAuth bool

	retried bool
}

// Retried reports whether the request already used its one refresh retry.
func (r *Request) Retried() bool { return r.retried }

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

func (r *Response) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

type TransportOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logger.Logger
}

// Transport sends requests to the backend. It never interprets status
// codes; only a missing response is an error here.
type Transport struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

func NewTransport(opts TransportOptions) (*Transport, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Transport{baseURL: baseURL, timeout: timeout, httpClient: hc, log: log}, nil
}

func (t *Transport) BaseURL() string { return t.baseURL }

// Do sends req once, adding the bearer token when accessToken is not empty.
func (t *Transport) Do(ctx context.Context, req *Request, accessToken string) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(req.Body); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", req.Method, req.Path, err)
		}
		body = buf
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, err
	}
	requestID := uuid.New().String()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.log.Warn("request failed without response",
			"method", req.Method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, utils.NewTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, utils.NewTransportError(err)
	}

	t.log.Debug("request completed",
		"method", req.Method, "path", req.Path, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
		RequestID:  requestID,
	}, nil
}
