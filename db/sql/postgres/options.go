package postgres

import "time"

// Options configures PostgreSQL connections and pool behavior.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

type Option func(*Options)

// WithDSN sets the lib/pq connection string.
func WithDSN(dsn string) Option {
	return func(o *Options) {
		if dsn != "" {
			o.DSN = dsn
		}
	}
}

// WithPool sizes the connection pool. Zero values keep the defaults.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(o *Options) {
		if maxOpen > 0 {
			o.MaxOpenConns = maxOpen
		}
		if maxIdle > 0 {
			o.MaxIdleConns = maxIdle
		}
		if maxLifetime > 0 {
			o.ConnMaxLifetime = maxLifetime
		}
	}
}

// WithPingTimeout bounds the connectivity check done by Open.
func WithPingTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PingTimeout = d
		}
	}
}

func defaultOptions() Options {
	return Options{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		PingTimeout:     5 * time.Second,
	}
}
