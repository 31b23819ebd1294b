// Package client talks to the circuits REST API. Every operation returns a
// model.Result; transport, decode and server failures are folded into the
// Failure variant instead of being returned as errors.
package client

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

	"github.com/martinsuchenak/circuits/internal/log"
	"github.com/martinsuchenak/circuits/internal/model"
	"github.com/martinsuchenak/circuits/internal/session"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 200
)

// Client is an authenticated API client bound to one session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if sess == nil {
		sess = session.New()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    createHTTPClient(),
		session: sess,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *session.Session {
	return c.session
}

func createHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func addAuthHeader(req *http.Request, token string) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	public      bool
}

// send performs r and returns the raw response body. A Failure is returned
// for anything other than a 2xx response.
func (c *Client) send(ctx context.Context, r request) ([]byte, *model.Failure) {
	var token string
	if !r.public {
		t, err := c.session.Token()
		if err != nil {
			log.Debug("Refusing request without credential", "path", r.path, "error", err)
			return nil, &model.Failure{Kind: model.FailureMissingCredential, Message: err.Error()}
		}
		token = t
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return nil, &model.Failure{Kind: model.FailureValidation, Message: fmt.Sprintf("invalid request: %v", err)}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	addAuthHeader(req, token)

	log.Debug("Sending request", "method", r.method, "path", r.path)
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Failed to connect to server", "error", err, "path", r.path)
		msg := "failed to connect to server"
		if errors.Is(err, context.Canceled) {
			msg = "request cancelled"
		}
		return nil, &model.Failure{Kind: model.FailureTransport, Message: msg}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Failed to read response", "error", err, "path", r.path)
		return nil, &model.Failure{Kind: model.FailureTransport, Message: "failed to read response from server"}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f := serverFailure(resp, body)
		log.Error("Server returned error", "status", resp.StatusCode, "path", r.path, "message", f.Message)
		return nil, &f
	}
	return body, nil
}

// serverFailure prefers the message of an error envelope and falls back to the status line.
func serverFailure(resp *http.Response, body []byte) model.Failure {
	var env model.Result[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil {
		if f, failed := env.Failure(); failed && f.Message != "" {
			return f
		}
	}
	msg := fmt.Sprintf("server error: %s", resp.Status)
	if text := strings.TrimSpace(string(body)); text != "" && !strings.HasPrefix(text, "{") {
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody]
		}
		msg += ": " + text
	}
	return model.Failure{Kind: model.FailureServer, Message: msg}
}

// call sends r and decodes the envelope into Result[T].
func call[T any](ctx context.Context, c *Client, r request) model.Result[T] {
	body, f := c.send(ctx, r)
	if f != nil {
		return model.Fail[T](f.Kind, f.Message)
	}
	var res model.Result[T]
	if err := json.Unmarshal(body, &res); err != nil {
		log.Error("Failed to decode response", "error", err, "path", r.path)
		return model.Failf[T](model.FailureDecode, "invalid response from server: %v", err)
	}
	return res
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	RequestedRole string `json:"requested_role"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login authenticates and, on success, starts the client's session with the issued token.
func (c *Client) Login(ctx context.Context, req LoginRequest) model.Result[LoginResponse] {
	body, err := jsonBody(req)
	if err != nil {
		return model.Failf[LoginResponse](model.FailureValidation, "invalid login request: %v", err)
	}
	res := call[LoginResponse](ctx, c, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        body,
		contentType: "application/json",
		public:      true,
	})
	if data, ok := res.Get(); ok {
		if data.Token == "" {
			return model.Fail[LoginResponse](model.FailureDecode, "login response did not include a token")
		}
		c.session.Start(data.Token)
		log.Info("Logged in", "username", req.Username, "role", c.session.Role())
	}
	return res
}

// Logout tears down the session. It makes no network call.
func (c *Client) Logout() {
	c.session.Clear()
}
