// Package pkapi is a thin client for the PluralKit HTTP API.
package pkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Options configures a Client.
type Options struct {
	Root          string
	SystemPath    string // e.g. "/s/{id}" or "/systems/{id}"
	MembersPath   string // e.g. "/s/{id}/members"
	OwnSystemPath string // e.g. "/s"
	ExchangePath  string // e.g. "/discord_oauth"
	Timeout       time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Client issues requests against a fixed API root.
type Client struct {
	root   string
	opts   Options
	client *http.Client
	log    *zap.Logger
}

// New creates a Client. A zero Timeout leaves requests bounded only by
// their context.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		root:   strings.TrimRight(opts.Root, "/"),
		opts:   opts,
		client: hc,
		log:    log.Named("pkapi"),
	}
}

// Root returns the API root the client talks to.
func (c *Client) Root() string { return c.root }

// Get issues a GET for path and returns the JSON body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.requestJSON(ctx, "get "+path, http.MethodGet, path, nil, nil)
}

// Post issues a POST with the given body and returns the JSON response.
func (c *Client) Post(ctx context.Context, path, contentType string, body io.Reader) (json.RawMessage, error) {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	return c.requestJSON(ctx, "post "+path, http.MethodPost, path, h, body)
}

// System fetches a system record by identifier.
func (c *Client) System(ctx context.Context, id string) (*System, error) {
	const op = "system"
	raw, err := c.requestJSON(ctx, op, http.MethodGet, ResolvePath(c.opts.SystemPath, map[string]string{"id": id}), nil, nil)
	if err != nil {
		return nil, err
	}
	sys, err := DecodeSystem(op, raw)
	if err != nil {
		c.log.Warn(op+" failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return sys, nil
}

// Members fetches the member collection of a system.
func (c *Client) Members(ctx context.Context, id string) ([]Member, error) {
	const op = "members"
	raw, err := c.requestJSON(ctx, op, http.MethodGet, ResolvePath(c.opts.MembersPath, map[string]string{"id": id}), nil, nil)
	if err != nil {
		return nil, err
	}
	members, err := DecodeMembers(op, raw)
	if err != nil {
		c.log.Warn(op+" failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return members, nil
}

// OwnSystem fetches the system the token belongs to.
func (c *Client) OwnSystem(ctx context.Context, token string) (*System, error) {
	const op = "own_system"
	h := http.Header{}
	h.Set("Authorization", token)
	raw, err := c.requestJSON(ctx, op, http.MethodGet, c.opts.OwnSystemPath, h, nil)
	if err != nil {
		return nil, err
	}
	sys, err := DecodeSystem(op, raw)
	if err != nil {
		c.log.Warn(op+" failed", zap.Error(err))
		return nil, err
	}
	return sys, nil
}

// ExchangeCode trades a Discord authorization code for a token through the
// API's legacy endpoint. The endpoint may answer with a JSON object
// carrying access_token, a JSON string, or the bare token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	const op = "discord_oauth"
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(ctx, op, http.MethodPost, c.opts.ExchangePath, h, strings.NewReader(url.QueryEscape(code)))
	if err != nil {
		return "", err
	}

	var obj struct {
		AccessToken string `json:"access_token"`
		Token       string `json:"token"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.AccessToken != "" {
			return obj.AccessToken, nil
		}
		if obj.Token != "" {
			return obj.Token, nil
		}
	}
	var str string
	if err := json.Unmarshal(body, &str); err == nil && str != "" {
		return str, nil
	}
	if token := strings.TrimSpace(string(body)); token != "" && !strings.ContainsAny(token, "{}[]\" \n") {
		return token, nil
	}

	err = &MalformedResponseError{Op: op, Body: string(body)}
	c.log.Warn(op+" failed", zap.Error(err))
	return "", err
}

func (c *Client) requestJSON(ctx context.Context, op, method, path string, h http.Header, body io.Reader) (json.RawMessage, error) {
	raw, err := c.do(ctx, op, method, path, h, body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		err := &MalformedResponseError{Op: op, Body: string(raw)}
		c.log.Warn(op+" failed", zap.Error(err))
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// do performs the request and enforces the 2xx contract.
func (c *Client) do(ctx context.Context, op, method, path string, h http.Header, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.root+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", op, err)
	}
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		reqErr := &RequestError{Op: op, Err: err}
		c.log.Warn(op+" failed", zap.String("path", path), zap.Error(reqErr))
		return nil, reqErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		reqErr := &RequestError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, Err: err}
		c.log.Warn(op+" failed", zap.String("path", path), zap.Error(reqErr))
		return nil, reqErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status}
		c.log.Warn(op+" failed", zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Error(reqErr))
		return nil, reqErr
	}

	c.log.Debug("api request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	return bytes.TrimSpace(raw), nil
}

var pathParam = regexp.MustCompile(`{(\w+)}`)

// ResolvePath substitutes {key} placeholders in tmpl with path-escaped
// values from args. Keys without a value resolve to the key name itself.
func ResolvePath(tmpl string, args map[string]string) string {
	return pathParam.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := args[key]; ok && v != "" {
			return url.PathEscape(v)
		}
		return key
	})
}
