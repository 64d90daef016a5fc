package yggdrasil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultBaseURL is the public Mojang authentication server.
const DefaultBaseURL = "https://authserver.mojang.com"

const (
	pathAuthenticate = "/authenticate"
	pathValidate     = "/validate"
	pathRefresh      = "/refresh"
	pathInvalidate   = "/invalidate"

	maxResponseSize = 1 << 20
)

// Config controls the HTTP client.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	AgentName    string
	AgentVersion int
	HTTPClient   *http.Client
}

// Client talks to a Yggdrasil authentication server over HTTP+JSON.
//
// Client is safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	agent     Agent
	http      *http.Client
}

// NewClient builds a Client. Zero fields in cfg fall back to the Mojang defaults.
func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	agent := Agent{Name: cfg.AgentName, Version: cfg.AgentVersion}
	if agent.Name == "" {
		agent.Name = "Minecraft"
	}
	if agent.Version <= 0 {
		agent.Version = 1
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		agent:     agent,
		http:      hc,
	}
}

// Authenticate exchanges credentials for a new session. clientToken may be
// empty, in which case the server generates one.
func (c *Client) Authenticate(ctx context.Context, username, password, clientToken string) (*Session, error) {
	req := AuthenticateRequest{
		Agent:       c.agent,
		Username:    username,
		Password:    password,
		ClientToken: clientToken,
		RequestUser: true,
	}
	var out Session
	if err := c.post(ctx, pathAuthenticate, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate reports whether accessToken is still accepted. A nil error means valid.
func (c *Client) Validate(ctx context.Context, accessToken, clientToken string) error {
	return c.post(ctx, pathValidate, tokenPair{AccessToken: accessToken, ClientToken: clientToken}, nil)
}

// Refresh exchanges an access/client token pair for a new access token.
// selected may be nil.
func (c *Client) Refresh(ctx context.Context, accessToken, clientToken string, selected *Profile) (*Session, error) {
	req := RefreshRequest{
		AccessToken:     accessToken,
		ClientToken:     clientToken,
		SelectedProfile: selected,
		RequestUser:     true,
	}
	var out Session
	if err := c.post(ctx, pathRefresh, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate revokes accessToken on the server.
func (c *Client) Invalidate(ctx context.Context, accessToken, clientToken string) error {
	return c.post(ctx, pathInvalidate, tokenPair{AccessToken: accessToken, ClientToken: clientToken}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	errb := oops.In("yggdrasil").With("endpoint", path)

	payload, err := json.Marshal(body)
	if err != nil {
		return errb.Wrapf(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errb.Wrapf(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s: %w", path, ctx.Err())
		}
		return errb.Code("network").Wrapf(ErrNetwork, "%s: %v", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("%s: %w", path, ctx.Err())
		}
		return errb.Code("network").With("status", resp.StatusCode).Wrapf(ErrNetwork, "%s: read body: %v", path, err)
	}

	errb = errb.With("status", resp.StatusCode)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return errb.Code("malformed_response").Wrapf(ErrMalformedResponse, "%s: empty body", path)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return errb.Code("malformed_response").Wrapf(ErrMalformedResponse, "%s: decode: %v", path, err)
		}
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return errb.Code("server_error").Wrapf(ErrServerError, "%s: status %d", path, resp.StatusCode)
	case resp.StatusCode >= 400:
		return c.remoteError(errb, path, resp.StatusCode, raw)
	default:
		return errb.Code("malformed_response").Wrapf(ErrMalformedResponse, "%s: unexpected status %d", path, resp.StatusCode)
	}
}

func (c *Client) remoteError(errb oops.OopsErrorBuilder, path string, status int, raw []byte) error {
	var er errorResponse
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &er); err != nil {
			return errb.Code("malformed_response").Wrapf(ErrMalformedResponse, "%s: status %d with undecodable error body", path, status)
		}
	}
	errb = errb.With("remote_error", er.Error)

	msg := er.ErrorMessage
	if msg == "" {
		msg = fmt.Sprintf("status %d", status)
	}

	if path == pathAuthenticate {
		return errb.Code("invalid_credentials").Wrapf(ErrInvalidCredentials, "%s", msg)
	}
	if strings.Contains(strings.ToLower(msg), "expired") {
		return errb.Code("expired_token").Wrapf(ErrExpiredToken, "%s", msg)
	}
	return errb.Code("invalid_token").Wrapf(ErrInvalidToken, "%s", msg)
}
