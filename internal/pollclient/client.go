// Package pollclient talks to a chessx server over HTTP (fasthttp) and WebSocket.
package pollclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/chessx/internal/board"
	"github.com/park285/chessx/pkg/chessdto"
)

type Client struct {
	baseURL string
	http    *fasthttp.Client
	token   string

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		defaultTimeout: 5 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token, e.g. after Login.
func (c *Client) SetToken(token string) { c.token = strings.TrimSpace(token) }

// APIError is a non-success answer. State is set when the server sent the current game
// along with the refusal.
type APIError struct {
	Status  int
	Code    string
	Message string
	State   *chessdto.GameState
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chessx: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("chessx: status %d", e.Status)
}

// IsConflict reports whether err is an optimistic-concurrency refusal.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == chessdto.CodeConflict
}

// IsIllegal reports whether err is a strict-mode illegal move refusal.
func IsIllegal(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == chessdto.CodeIllegalMove
}

// IsUnauthorized reports whether the server asked for a token.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == fasthttp.StatusUnauthorized
}

func (c *Client) Game(ctx context.Context) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodGet, "/game", nil, true)
}

// Move submits a position. Re-submitting is harmless, so transport errors are retried.
func (c *Client) Move(ctx context.Context, req chessdto.MoveRequest) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodPost, "/move", req, true)
}

func (c *Client) Undo(ctx context.Context) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodPost, "/undo", nil, false)
}

func (c *Client) Reset(ctx context.Context) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodPost, "/reset", nil, false)
}

func (c *Client) SetNames(ctx context.Context, white, black string) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodPost, "/names", chessdto.NamesRequest{White: white, Black: black}, true)
}

func (c *Client) Castle(ctx context.Context, color board.Color, wing board.Wing) (*chessdto.GameState, error) {
	return c.state(ctx, fasthttp.MethodPost, "/castle", chessdto.CastleRequest{Color: string(color), Side: string(wing)}, false)
}

func (c *Client) Legal(ctx context.Context, sq board.Square, free bool) (*chessdto.LegalTargets, error) {
	q := url.Values{}
	q.Set("row", strconv.Itoa(sq.Row))
	q.Set("col", strconv.Itoa(sq.Col))
	if free {
		q.Set("free", "1")
	}
	var out chessdto.LegalTargets
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/legal?"+q.Encode(), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

type chatResponse struct {
	Success  bool                   `json:"success"`
	Messages []chessdto.ChatMessage `json:"messages"`
}

func (c *Client) Chat(ctx context.Context) ([]chessdto.ChatMessage, error) {
	var out chatResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/tchat", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Say posts a chat message and returns the refreshed list.
func (c *Client) Say(ctx context.Context, text string) ([]chessdto.ChatMessage, error) {
	var out chatResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/tchat", chessdto.ChatPostRequest{Text: text}, &out, false); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

// Login exchanges the admin password for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, password string) (*chessdto.LoginResponse, error) {
	var out chessdto.LoginResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/login", chessdto.LoginRequest{Password: password}, &out, false); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) state(ctx context.Context, method, path string, in any, retry bool) (*chessdto.GameState, error) {
	var st chessdto.GameState
	if err := c.doJSON(ctx, method, path, in, &st, retry); err != nil {
		return nil, err
	}
	if !st.Success {
		apiErr := &APIError{Status: fasthttp.StatusOK, State: &st}
		if st.Error != nil {
			apiErr.Code, apiErr.Message = st.Error.Code, st.Error.Message
		}
		return nil, apiErr
	}
	return &st, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			apiErr := decodeAPIError(status, resp.Body())
			if attempt == attempts || !shouldRetryStatus(status) {
				return apiErr
			}
			lastErr = apiErr
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// decodeAPIError reads either a bare error envelope or a game document with success:false.
func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var st chessdto.GameState
	if err := json.Unmarshal(body, &st); err == nil {
		if st.Error != nil {
			apiErr.Code, apiErr.Message = st.Error.Code, st.Error.Message
		}
		if st.FEN != "" {
			apiErr.State = &st
		}
	}
	if apiErr.Code == "" {
		apiErr.Message = truncate(string(body), 256)
	}
	return apiErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	attempt = max(1, min(attempt, 6))
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// BoardPNG fetches the rendered board.
func (c *Client) BoardPNG(ctx context.Context, flip bool) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	uri := c.baseURL + "/board.png"
	if flip {
		uri += "?flip=1"
	}
	req.SetRequestURI(uri)
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, decodeAPIError(resp.StatusCode(), resp.Body())
	}
	return append([]byte(nil), resp.Body()...), nil
}
