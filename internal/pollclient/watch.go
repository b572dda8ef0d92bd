package pollclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/chessx/pkg/chessdto"
)

// StateFunc receives every new game state.
type StateFunc func(chessdto.GameState)

// Watch streams states over /ws until ctx ends, reconnecting with backoff. Duplicate
// revisions are filtered.
func (c *Client) Watch(ctx context.Context, fn StateFunc) error {
	wsURL, err := c.wsURL()
	if err != nil {
		return err
	}
	var last int64 = -1
	var attempt int
	for {
		err := c.watchOnce(ctx, wsURL, func(st chessdto.GameState) {
			attempt = 0
			if st.Revision == last {
				return
			}
			last = st.Revision
			fn(st)
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Code == websocket.StatusPolicyViolation {
			return err
		}
		attempt++
		if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
}

func (c *Client) watchOnce(ctx context.Context, wsURL string, fn StateFunc) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      c.wsHeaders(),
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	for {
		var st chessdto.GameState
		if err := wsjson.Read(ctx, conn, &st); err != nil {
			return err
		}
		fn(st)
	}
}

// Poll fetches /game every interval and reports revision changes, mirroring the browser
// client's one-second refresh.
func (c *Client) Poll(ctx context.Context, interval time.Duration, fn StateFunc) error {
	if interval <= 0 {
		interval = time.Second
	}
	var last int64 = -1
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		st, err := c.Game(ctx)
		if err == nil && st.Revision != last {
			last = st.Revision
			fn(*st)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func (c *Client) wsHeaders() http.Header {
	h := http.Header{}
	if c.token != "" {
		h.Set("Authorization", "Bearer "+c.token)
	}
	return h
}
