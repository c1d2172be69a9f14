// Package api is the authenticated request pipeline between the client and
// the remote authority. Every call carries the current access token and is
// transparently retried exactly once after a refresh exchange when the
// authority answers 401.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tradewind-cards/tradewind/credstore"
	"github.com/tradewind-cards/tradewind/logger"
)

const refreshPath = "/token/refresh/"

type Client struct {
	baseURL string
	http    *http.Client
	creds   credstore.Store

	// Concurrent 401s would otherwise each run their own refresh exchange;
	// the group collapses them into one.
	refresh singleflight.Group
}

func NewClient(baseURL string, creds credstore.Store, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
	}
}

// call is one logical request. attempt distinguishes the original dispatch
// (0) from the single post-refresh retry (1); there is no hidden retry flag
// on a shared request object and no retry loop.
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	attempt int
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, call{method: http.MethodGet, path: path, query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, call{method: http.MethodPost, path: path, body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, call{method: http.MethodDelete, path: path}, nil)
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	req, err := c.buildRequest(ctx, cl)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.LogRequest(cl.method, cl.path, 0, time.Since(start), err)
		return fmt.Errorf("request %s %s failed: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response for %s %s: %w", cl.method, cl.path, err)
	}
	logger.LogRequest(cl.method, cl.path, resp.StatusCode, time.Since(start), nil)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response for %s %s: %w", cl.method, cl.path, err)
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized:
		if cl.attempt > 0 {
			return &AuthError{Reason: "credentials rejected after refresh"}
		}
		if err := c.refreshAccessToken(ctx); err != nil {
			return err
		}
		retried := cl
		retried.attempt = 1
		return c.do(ctx, retried, out)

	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{Resource: "resource"}

	default:
		upstream := &UpstreamError{Status: resp.StatusCode, Body: string(body)}
		// Best effort; a non-JSON body leaves the envelope empty.
		_ = json.Unmarshal(body, &upstream.Envelope)
		return upstream
	}
}

func (c *Client) buildRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The token is re-read on every dispatch so a retry always carries the
	// freshly refreshed credential.
	token, err := c.creds.Get(ctx, credstore.KeyAccessToken)
	if err == nil && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if err != nil && !errors.Is(err, credstore.ErrNotFound) {
		return nil, err
	}

	return req, nil
}

// refreshAccessToken exchanges the refresh token for a new access token and
// persists it before returning, so the retried request picks it up. Any
// failure is an AuthError; the caller must end the session.
func (c *Client) refreshAccessToken(ctx context.Context) error {
	_, err, _ := c.refresh.Do("refresh", func() (any, error) {
		refreshToken, err := c.creds.Get(ctx, credstore.KeyRefreshToken)
		if err != nil {
			if errors.Is(err, credstore.ErrNotFound) {
				return nil, &AuthError{Reason: "no refresh token available"}
			}
			return nil, err
		}

		payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
		if err != nil {
			return nil, fmt.Errorf("failed to encode refresh request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+refreshPath, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to build refresh request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, &AuthError{Reason: "refresh exchange failed", Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &AuthError{Reason: "refresh exchange failed", Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &AuthError{Reason: fmt.Sprintf("refresh exchange rejected with status %d", resp.StatusCode)}
		}

		var result struct {
			Access string `json:"access"`
		}
		if err := json.Unmarshal(body, &result); err != nil || result.Access == "" {
			return nil, &AuthError{Reason: "refresh exchange returned no access token", Err: err}
		}

		if err := c.creds.Set(ctx, credstore.KeyAccessToken, result.Access); err != nil {
			return nil, err
		}

		logger.LogAuth("Access token refreshed")
		return nil, nil
	})
	return err
}
