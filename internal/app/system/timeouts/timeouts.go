// internal/app/system/timeouts/timeouts.go

// Package timeouts holds the per-operation deadlines handlers apply with
// context.WithTimeout.
//
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list + count, multi-step reads
//   - Long: transactions and uploads touching several collections
package timeouts

import (
	"context"
	"sync/atomic"
	"time"
)

// Defaults used until Configure is called.
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var ping, short, medium, long atomic.Int64

func init() { Reset() }

// Config overrides timeouts. Zero fields keep the current value.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

func Ping() time.Duration   { return time.Duration(ping.Load()) }
func Short() time.Duration  { return time.Duration(short.Load()) }
func Medium() time.Duration { return time.Duration(medium.Load()) }
func Long() time.Duration   { return time.Duration(long.Load()) }

// Configure applies cfg at startup.
func Configure(cfg Config) {
	set := func(v *atomic.Int64, d time.Duration) {
		if d > 0 {
			v.Store(int64(d))
		}
	}
	set(&ping, cfg.Ping)
	set(&short, cfg.Short)
	set(&medium, cfg.Medium)
	set(&long, cfg.Long)
}

// Reset restores the defaults.
func Reset() {
	ping.Store(int64(DefaultPing))
	short.Store(int64(DefaultShort))
	medium.Store(int64(DefaultMedium))
	long.Store(int64(DefaultLong))
}

// Current reports the active values.
func Current() Config {
	return Config{Ping: Ping(), Short: Short(), Medium: Medium(), Long: Long()}
}

// WithShort bounds ctx by Short().
func WithShort(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Short())
}

func WithMedium(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Medium())
}

func WithLong(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, Long())
}
