// Package txretry runs a unit of work again when it fails with a transient
// store error, waiting an exponentially growing delay between attempts.
package txretry

import (
	"context"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Defaults used by DefaultPolicy.
const (
	DefaultMaxAttempts     = 3
	DefaultBackoffBase     = 1000 * time.Millisecond
	DefaultBackoffExponent = 1.5
)

// Policy describes how many times a unit of work is attempted and how long
// to wait in between.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// Classifier picks the errors that are retried.
	Classifier Classifier
	// BackoffBase is the wait before the second attempt.
	BackoffBase time.Duration
	// BackoffExponent multiplies the wait for every further attempt.
	BackoffExponent float64
}

// DefaultPolicy returns 3 attempts, 1s base, 1.5 exponent and pattern matching
// on deadlock, lock wait timeout and serialization failure messages.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     DefaultMaxAttempts,
		Classifier:      PatternClassifier(),
		BackoffBase:     DefaultBackoffBase,
		BackoffExponent: DefaultBackoffExponent,
	}
}

// exponential returns the unjittered BackoffBase * BackoffExponent^n sequence.
func (p Policy) exponential() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BackoffBase
	b.Multiplier = p.BackoffExponent
	if b.Multiplier <= 0 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(math.MaxInt64)
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Backoff returns the wait after the given 0-based attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	b := p.exponential()
	d := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (p Policy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) classify(err error) Class {
	if p.Classifier == nil {
		return PatternClassifier().Classify(err)
	}
	return p.Classifier.Classify(err)
}

// RetryFunc is told about every attempt that is going to be retried.
type RetryFunc func(attempt int, delay time.Duration, err error)

type options struct {
	timer   backoff.Timer
	onRetry []RetryFunc
}

// Option configures a single Do call.
type Option func(*options)

// WithTimer replaces the wall clock timer used for the waits.
func WithTimer(t backoff.Timer) Option {
	return func(o *options) { o.timer = t }
}

// NoWait fires every wait immediately. Delays are still reported to OnRetry.
func NoWait() Option {
	return WithTimer(&instantTimer{c: make(chan time.Time, 1)})
}

// OnRetry registers a callback invoked before each backoff wait.
func OnRetry(fn RetryFunc) Option {
	return func(o *options) { o.onRetry = append(o.onRetry, fn) }
}

// Do calls fn until it succeeds, fails with a terminal error or runs out of
// attempts. The last error of fn is returned unchanged. If ctx is cancelled
// while waiting between attempts, ctx.Err() is returned instead.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(p.exponential(), uint64(p.maxAttempts()-1)),
		ctx,
	)

	attempt := 0
	notify := func(err error, delay time.Duration) {
		for _, fn := range o.onRetry {
			fn(attempt, delay, err)
		}
		attempt++
	}

	return backoff.RetryNotifyWithTimer(func() error {
		err := fn(ctx)
		if err != nil && p.classify(err) != Transient {
			return backoff.Permanent(err)
		}
		return err
	}, b, notify, o.timer)
}

type instantTimer struct {
	c chan time.Time
}

func (t *instantTimer) Start(time.Duration) {
	select {
	case t.c <- time.Now():
	default:
	}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }
