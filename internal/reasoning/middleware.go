package reasoning

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/julianshen/componentdoc/internal/config"
	"github.com/julianshen/componentdoc/internal/logger"
)

// Middleware decorates an Invoker with a cross-cutting concern.
type Middleware func(Invoker) Invoker

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Invoker, mws ...Middleware) Invoker {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			out = mws[i](out)
		}
	}
	return out
}

// -------- Retry with exponential backoff --------

// Retry retries Invoke up to maxAttempts with exponential backoff starting
// at baseDelay. A canceled context stops it immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next Invoker) Invoker {
		return Func(func(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
			var last error
			for i := 0; i < maxAttempts; i++ {
				out, err := next.Invoke(ctx, system, user, opts)
				if err == nil {
					return out, nil
				}
				last = err
				if i == maxAttempts-1 {
					break
				}
				t := time.NewTimer(baseDelay * time.Duration(1<<i))
				select {
				case <-ctx.Done():
					t.Stop()
					return "", ctx.Err()
				case <-t.C:
				}
			}
			return "", last
		})
	}
}

// -------- Rate limiting --------

// RateLimit limits invocations to rps per second with the given burst.
// rps <= 0 disables the limiter.
func RateLimit(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return func(next Invoker) Invoker {
		lim := rate.NewLimiter(rate.Limit(rps), burst)
		return Func(func(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
			if err := lim.Wait(ctx); err != nil {
				return "", err
			}
			return next.Invoke(ctx, system, user, opts)
		})
	}
}

// -------- Response cache --------

// Cache memoizes successful responses keyed by prompt and options. size <= 0
// disables the cache.
func Cache(size int, ttl time.Duration) Middleware {
	if size <= 0 {
		return nil
	}
	return func(next Invoker) Invoker {
		lru := expirable.NewLRU[string, string](size, nil, ttl)
		return Func(func(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
			key := cacheKey(system, user, opts)
			if out, ok := lru.Get(key); ok {
				return out, nil
			}
			out, err := next.Invoke(ctx, system, user, opts)
			if err != nil {
				return "", err
			}
			lru.Add(key, out)
			return out, nil
		})
	}
}

func cacheKey(system, user string, opts config.ModelOptions) string {
	h := sha256.New()
	o, _ := json.Marshal(opts)
	h.Write(o)
	h.Write([]byte{0})
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(user))
	return hex.EncodeToString(h.Sum(nil))
}

// -------- Logging --------

// Logging logs each invocation with its model, prompt size and duration.
func Logging(log *zap.SugaredLogger) Middleware {
	log = logger.OrNop(log)
	return func(next Invoker) Invoker {
		return Func(func(ctx context.Context, system, user string, opts config.ModelOptions) (string, error) {
			start := time.Now()
			out, err := next.Invoke(ctx, system, user, opts)
			fields := []any{
				"model", opts.Model,
				"prompt_chars", len(system) + len(user),
				logger.FieldDuration, time.Since(start).Milliseconds(),
			}
			if err != nil {
				log.Warnw("reasoning call failed", append(fields, logger.FieldError, err)...)
				return "", err
			}
			log.Debugw("reasoning call", append(fields, "response_chars", len(out))...)
			return out, nil
		})
	}
}

// FromConfig assembles the middleware chain described by the reasoning
// section of the configuration: logging outermost, then cache, retry and
// rate limiting closest to the transport.
func FromConfig(inner Invoker, rc config.ReasoningConfig, log *zap.SugaredLogger) Invoker {
	return Wrap(inner,
		Logging(log),
		Cache(rc.CacheSize, rc.CacheTTL),
		Retry(rc.RetryAttempts, rc.RetryBaseDelay),
		RateLimit(rc.RPS, rc.Burst),
	)
}
