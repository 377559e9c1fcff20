// Package gateway issues authenticated HTTP requests to the backend and
// normalizes its responses. Expected failure modes never escape as panics;
// they come back as a *Error carrying a Kind the caller can branch on.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind classifies an expected backend failure.
type Kind int

const (
	// KindTransient covers transport errors, 5xx responses and malformed
	// payloads. The caller may retry the same action.
	KindTransient Kind = iota
	// KindAuth means the credential was rejected (401).
	KindAuth
	// KindValidation means the request payload was rejected; Messages
	// holds one entry per violated field.
	KindValidation
	// KindConflict means the target is already in a state that makes the
	// operation invalid (409), e.g. accepting an already-accepted request.
	KindConflict
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// Error is a normalized backend failure.
type Error struct {
	// Kind discriminates the failure mode.
	Kind Kind
	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int
	// Messages holds the user-facing messages from the response body.
	Messages []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s failure (status %d)", e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s failure: %s", e.Kind, strings.Join(e.Messages, "; "))
}

// KindOf returns the Kind of err if it is a gateway error, and KindTransient
// otherwise: an unclassified error is treated as retryable by policy.
func KindOf(err error) Kind {
	if ge, ok := err.(*Error); ok {
		return ge.Kind
	}
	return KindTransient
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	ge, ok := err.(*Error)
	return ok && ge.Kind == KindAuth
}

// Result is the normalized outcome of a successful backend call.
type Result struct {
	// Data is the raw "data" member of the response envelope.
	Data json.RawMessage
	// Message is the server's informational message, if any.
	Message string
}

// Decode unmarshals the result's data into v.
func (r Result) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("empty response data")
	}
	return json.Unmarshal(r.Data, v)
}

// TokenSource supplies the current access credential. An empty string
// means no credential is held and the request goes out unauthenticated.
type TokenSource interface {
	AccessToken() string
}

// Gateway performs HTTP calls against the backend. The cookie jar carries
// the refresh-token cookie automatically; client code never reads it.
type Gateway struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
	log     *zap.Logger
}

// New constructs a Gateway for the given API base URL. tokens supplies the
// bearer credential per request and may return "" while anonymous.
func New(baseURL string, tokens TokenSource, log *zap.Logger) (*Gateway, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Jar: jar, Timeout: 10 * time.Second},
		tokens:  tokens,
		log:     log,
	}, nil
}

// SetTimeout replaces the default per-request timeout.
func (g *Gateway) SetTimeout(d time.Duration) {
	g.client.Timeout = d
}

// Get issues an authenticated GET request.
func (g *Gateway) Get(ctx context.Context, path string) (Result, error) {
	return g.Do(ctx, http.MethodGet, path, nil)
}

// Post issues an authenticated POST request with an optional JSON body.
func (g *Gateway) Post(ctx context.Context, path string, body any) (Result, error) {
	return g.Do(ctx, http.MethodPost, path, body)
}

// Patch issues an authenticated PATCH request with an optional JSON body.
func (g *Gateway) Patch(ctx context.Context, path string, body any) (Result, error) {
	return g.Do(ctx, http.MethodPatch, path, body)
}

// Delete issues an authenticated DELETE request.
func (g *Gateway) Delete(ctx context.Context, path string) (Result, error) {
	return g.Do(ctx, http.MethodDelete, path, nil)
}

// envelope is the backend's response shape. List endpoints omit the
// success flag; message may be a string or an array of field messages.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message json.RawMessage `json:"message"`
}

// messages flattens the envelope's message member into a string slice.
func (e envelope) messages() []string {
	if len(e.Message) == 0 {
		return nil
	}
	var one string
	if err := json.Unmarshal(e.Message, &one); err == nil {
		if one == "" {
			return nil
		}
		return []string{one}
	}
	var many []string
	if err := json.Unmarshal(e.Message, &many); err == nil {
		return many
	}
	return nil
}

// Do executes a request and normalizes the response. On failure the
// returned error is a *Error whose Kind maps from the status code:
// 401 auth, 400/422 validation, 409 conflict, everything else transient.
func (g *Gateway) Do(ctx context.Context, method, path string, body any) (Result, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return Result{}, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := g.tokens.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return Result{}, &Error{Kind: KindTransient, Messages: []string{err.Error()}}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Messages: []string{err.Error()}}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			g.log.Warn("malformed response payload",
				zap.String("path", path), zap.Int("status", resp.StatusCode), zap.Error(err))
			return Result{}, &Error{Kind: KindTransient, StatusCode: resp.StatusCode}
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// List endpoints carry no success flag: a 2xx with data is success.
		if env.Success != nil && !*env.Success {
			return Result{}, &Error{Kind: KindTransient, StatusCode: resp.StatusCode, Messages: env.messages()}
		}
		var msg string
		if msgs := env.messages(); len(msgs) > 0 {
			msg = msgs[0]
		}
		return Result{Data: env.Data, Message: msg}, nil
	}

	kind := KindTransient
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	case http.StatusConflict:
		kind = KindConflict
	}
	return Result{}, &Error{Kind: kind, StatusCode: resp.StatusCode, Messages: env.messages()}
}
