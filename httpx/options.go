package httpx

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4/middleware"
)

type ServerOptions struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Middlewares  []MiddlewareFunc
	Validators   []Validator
	CORS         *middleware.CORSConfig
	RateLimit    float64
	Logger       *slog.Logger
}

type ServerOption func(*ServerOptions)

func defaultServerOptions() ServerOptions {
	return ServerOptions{
		Address:      ":8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		Middlewares:  []MiddlewareFunc{RecoverMiddleware(), RequestIDMiddleware()},
	}
}

func WithAddress(addr string) ServerOption {
	return func(o *ServerOptions) {
		if addr != "" {
			o.Address = addr
		}
	}
}

func WithTimeouts(read, write time.Duration) ServerOption {
	return func(o *ServerOptions) {
		if read > 0 {
			o.ReadTimeout = read
		}
		if write > 0 {
			o.WriteTimeout = write
		}
	}
}

// AppendMiddlewares appends additional middleware to the existing stack.
func AppendMiddlewares(mw ...MiddlewareFunc) ServerOption {
	return func(o *ServerOptions) {
		if len(mw) > 0 {
			o.Middlewares = append(o.Middlewares, mw...)
		}
	}
}

// WithValidators installs request-level validators executed before route handlers.
func WithValidators(v ...Validator) ServerOption {
	return func(o *ServerOptions) {
		if len(v) > 0 {
			o.Validators = append([]Validator{}, v...)
		}
	}
}

// WithCORS enables CORS middleware using the provided configuration; if cfg is nil, the default config is used.
func WithCORS(cfg *middleware.CORSConfig) ServerOption {
	return func(o *ServerOptions) {
		if cfg == nil {
			def := middleware.DefaultCORSConfig
			o.CORS = &def
			return
		}
		o.CORS = cfg
	}
}

// WithRateLimit caps each client at perSecond requests; zero disables limiting.
func WithRateLimit(perSecond float64) ServerOption {
	return func(o *ServerOptions) {
		if perSecond > 0 {
			o.RateLimit = perSecond
		}
	}
}

// WithLogger sets the request logger; without it requests go to slog.Default.
func WithLogger(l *slog.Logger) ServerOption {
	return func(o *ServerOptions) {
		if l != nil {
			o.Logger = l
		}
	}
}

// DefaultFetchTimeout bounds every FetchJSON/FetchText call.
const DefaultFetchTimeout = 10 * time.Second

type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
	Retry   RetryPolicy
}

// RetryPolicy configures opt-in retries with exponential backoff. The zero value
// disables retries.
type RetryPolicy struct {
	Count   int
	Wait    time.Duration
	MaxWait time.Duration
}

type ClientOption func(*ClientOptions)

func defaultClientOptions() ClientOptions {
	return ClientOptions{Timeout: DefaultFetchTimeout, Headers: map[string]string{"Accept": "application/json"}}
}

func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		if url != "" {
			o.BaseURL = url
		}
	}
}

func WithClientTimeout(d time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		if len(headers) == 0 {
			return
		}
		o.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}

// WithRetry retries failed requests (transport errors, 429 and 5xx) up to count
// times, backing off exponentially from wait up to maxWait.
func WithRetry(count int, wait, maxWait time.Duration) ClientOption {
	return func(o *ClientOptions) {
		if count > 0 {
			o.Retry = RetryPolicy{Count: count, Wait: wait, MaxWait: maxWait}
		}
	}
}
