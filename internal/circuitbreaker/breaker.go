// Package circuitbreaker isolates callers from a failing dependency.
//
// A Breaker is Closed while calls succeed. After FailureThreshold consecutive
// failures it trips Open and rejects calls without running them. Once ResetTimeout
// has elapsed it goes Half-Open and lets HalfOpenMaxCalls trial calls through; that
// many consecutive successes close it again, any failure re-opens it.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// State is the breaker state.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

var (
	// ErrOpen is returned when the breaker rejects a call and no fallback was given.
	ErrOpen = errors.New("circuit breaker open: service unavailable")
	// ErrTimeout is returned when a call exceeds Options.CallTimeout. It counts as a failure.
	ErrTimeout = errors.New("circuit breaker: call timed out")
)

// Options configures a Breaker. Zero values take the defaults below.
type Options struct {
	Name             string
	FailureThreshold uint32        // default 5
	ResetTimeout     time.Duration // default 30s
	HalfOpenMaxCalls uint32        // default 1; also the successes needed to close
	CallTimeout      time.Duration // 0 disables the per-call timeout
	// IsFailure decides whether an operation error counts against the breaker.
	// Defaults to every non-nil error.
	IsFailure func(err error) bool
	Logger    *slog.Logger
}

// Breaker wraps gobreaker with a per-call timeout and fallback support.
// It is safe for concurrent use.
type Breaker struct {
	cb          *gobreaker.CircuitBreaker
	callTimeout time.Duration
	logger      *slog.Logger
}

// New builds a Breaker from opts.
func New(opts Options) *Breaker {
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 30 * time.Second
	}
	if opts.HalfOpenMaxCalls == 0 {
		opts.HalfOpenMaxCalls = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	isFailure := opts.IsFailure
	if isFailure == nil {
		isFailure = func(err error) bool { return err != nil }
	}
	b := &Breaker{
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
	threshold := opts.FailureThreshold
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: opts.HalfOpenMaxCalls,
		Timeout:     opts.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Timeouts always count, whatever the caller's classifier says.
			if errors.Is(err, ErrTimeout) {
				return false
			}
			if errors.Is(err, context.Canceled) {
				// A trial the caller abandoned never reached a verdict, so it cannot close the breaker.
				return b.cb.State() != gobreaker.StateHalfOpen
			}
			return !isFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Warn("circuit breaker state change",
				"breaker", name,
				"from", convertState(from),
				"to", convertState(to),
			)
		},
	})
	return b
}

// Name returns the breaker name.
func (b *Breaker) Name() string { return b.cb.Name() }

// State returns the current state, moving Open to Half-Open if the reset timeout has passed.
func (b *Breaker) State() State { return convertState(b.cb.State()) }

// ConsecutiveFailures returns the failure count in the current generation.
func (b *Breaker) ConsecutiveFailures() uint32 { return b.cb.Counts().ConsecutiveFailures }

func convertState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// Fallback produces a result when the breaker rejects a call. rejected is ErrOpen.
type Fallback[T any] func(ctx context.Context, rejected error) (T, error)

// Run executes op through b. When the breaker is open (or half-open with all trial
// slots taken) op is not invoked: fallback runs if non-nil, otherwise ErrOpen is returned.
// A ctx that is already done returns its error without touching the breaker.
func Run[T any](ctx context.Context, b *Breaker, op func(ctx context.Context) (T, error), fallback Fallback[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.call(ctx, func(ctx context.Context) (interface{}, error) {
			return op(ctx)
		})
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		if fallback != nil {
			return fallback(ctx, ErrOpen)
		}
		return zero, fmt.Errorf("%s: %w", b.cb.Name(), ErrOpen)
	}
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

// call races op against the per-call timeout. The losing goroutine writes into a
// buffered channel so it can always finish and be collected.
func (b *Breaker) call(ctx context.Context, op func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if b.callTimeout <= 0 {
		return op(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, b.callTimeout)
	defer cancel()

	type result struct {
		v   interface{}
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op(callCtx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// The caller gave up; that says nothing about the dependency.
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s after %s: %w", b.cb.Name(), b.callTimeout, ErrTimeout)
	}
}
