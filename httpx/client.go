package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client fetches upstream documents over resty. Every call is bounded by the
// client timeout; non-2xx answers and expired deadlines become typed errors.
type Client struct {
	resty   *resty.Client
	timeout time.Duration
}

func NewClient(opts ...ClientOption) *Client {
	cfg := defaultClientOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	rc := resty.New()
	if cfg.BaseURL != "" {
		rc.SetBaseURL(cfg.BaseURL)
	}
	if len(cfg.Headers) > 0 {
		rc.SetHeaders(cfg.Headers)
	}
	if cfg.Retry.Count > 0 {
		rc.SetRetryCount(cfg.Retry.Count)
		if cfg.Retry.Wait > 0 {
			rc.SetRetryWaitTime(cfg.Retry.Wait)
		}
		if cfg.Retry.MaxWait > 0 {
			rc.SetRetryMaxWaitTime(cfg.Retry.MaxWait)
		}
		rc.AddRetryCondition(retryable)
	}

	return &Client{resty: rc, timeout: cfg.Timeout}
}

func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

type RequestOption func(*resty.Request)

// WithRequestHeaders sets headers on the underlying Resty request.
func WithRequestHeaders(headers map[string]string) RequestOption {
	return func(r *resty.Request) {
		if len(headers) == 0 {
			return
		}
		r.SetHeaders(headers)
	}
}

// WithQuery sets query parameters on the request.
func WithQuery(params map[string]string) RequestOption {
	return func(r *resty.Request) {
		if len(params) == 0 {
			return
		}
		r.SetQueryParams(params)
	}
}

// FetchJSON GETs url within the client timeout and decodes the JSON body into out.
// A non-2xx answer yields a *StatusError, an expired deadline a *TimeoutError;
// other transport errors are returned as they are. FetchJSON never retries on
// its own: retries happen only when the client was built WithRetry.
func (c *Client) FetchJSON(ctx context.Context, url string, out any, opts ...RequestOption) error {
	resp, err := c.do(ctx, url, opts...)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("httpx: decode %s: %w", url, err)
	}
	return nil
}

// FetchText is FetchJSON without decoding.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := c.do(ctx, url)
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

func (c *Client) do(ctx context.Context, url string, opts ...RequestOption) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	parent, start := ctx, time.Now()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := c.resty.R().SetContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	resp, err := req.Get(url)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{URL: url, After: expiredAfter(parent, start, c.timeout)}
		}
		return nil, err
	}
	if !resp.IsSuccess() {
		serr := &StatusError{URL: url, Code: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
		slog.Warn("httpx: fetch failed", slog.String("url", url), slog.Int("status", serr.Code))
		return nil, serr
	}
	return resp, nil
}

// expiredAfter reports the budget of whichever deadline was the tighter one:
// the caller's or the client timeout.
func expiredAfter(parent context.Context, start time.Time, timeout time.Duration) time.Duration {
	dl, ok := parent.Deadline()
	if !ok {
		return timeout
	}
	budget := max(dl.Sub(start), 0)
	if timeout > 0 && timeout <= budget {
		return timeout
	}
	return budget
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
