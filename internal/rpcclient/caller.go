// Package rpcclient wraps the go-ethereum JSON-RPC client with the request
// policy used by the remote state backends: a token bucket rate limiter, a
// per-request timeout and bounded exponential backoff on transient errors.
package rpcclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/valo/eth-sim/internal/metrics"
)

//go:generate mockgen -source caller.go -destination caller_mocks.go -package rpcclient

// Caller is the request/response half of *rpc.Client.
type Caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// Subscriber is the subscription half of *rpc.Client.
type Subscriber interface {
	EthSubscribe(ctx context.Context, channel interface{}, args ...interface{}) (*rpc.ClientSubscription, error)
}

// Policy configures a RetryingCaller. A zero RateLimit disables limiting and
// a zero RetryMax disables retries.
type Policy struct {
	RateLimit      float64
	RateBurst      int
	RequestTimeout time.Duration
	RetryInitial   time.Duration
	RetryMax       uint64
}

// DefaultPolicy matches the limits of common hosted node providers.
func DefaultPolicy() Policy {
	return Policy{
		RateLimit:      330,
		RateBurst:      10,
		RequestTimeout: 5 * time.Second,
		RetryInitial:   100 * time.Millisecond,
		RetryMax:       5,
	}
}

// RetryingCaller applies a Policy to every call made through it. It is safe
// for concurrent use; all callers share one limiter.
type RetryingCaller struct {
	next    Caller
	limiter *rate.Limiter
	policy  Policy
}

func NewRetryingCaller(next Caller, policy Policy) *RetryingCaller {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if policy.RateLimit > 0 {
		burst := policy.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(policy.RateLimit), burst)
	}
	return &RetryingCaller{next: next, limiter: limiter, policy: policy}
}

func (c *RetryingCaller) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	return c.do(ctx, method, func(ctx context.Context) error {
		return c.next.CallContext(ctx, result, method, args...)
	})
}

// BatchCallContext retries the whole batch when the transport fails or when
// any element failed with a transient error.
func (c *RetryingCaller) BatchCallContext(ctx context.Context, b []rpc.BatchElem) error {
	return c.do(ctx, batchName(b), func(ctx context.Context) error {
		for i := range b {
			b[i].Error = nil
		}
		if err := c.next.BatchCallContext(ctx, b); err != nil {
			return err
		}
		for i := range b {
			if b[i].Error != nil && Retryable(b[i].Error) {
				return b[i].Error
			}
		}
		return nil
	})
}

func (c *RetryingCaller) do(ctx context.Context, method string, call func(context.Context) error) error {
	attempts := 0
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		callCtx := ctx
		if c.policy.RequestTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.policy.RequestTimeout)
			defer cancel()
		}

		start := time.Now()
		attempts++
		err := call(callCtx)
		metrics.RecordRPCCall(method, time.Since(start), err)
		if err == nil {
			return nil
		}
		// the caller gave up, not the node
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		metrics.IncRPCRetry(method)
		return err
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.policy.RetryInitial
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = 100 * time.Millisecond
	}
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.policy.RetryMax), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		if attempts > 1 {
			return fmt.Errorf("%s failed after %d attempts: %w", method, attempts, err)
		}
		return err
	}
	return nil
}

func batchName(b []rpc.BatchElem) string {
	if len(b) == 0 {
		return "batch"
	}
	return "batch:" + b[0].Method
}

// rate limit codes used by geth, Infura, Alchemy and QuickNode
var rateLimitCodes = map[int]bool{
	-32005: true,
	-32029: true,
	429:    true,
}

// Retryable reports whether err is worth another attempt: timeouts, dropped
// connections, HTTP 429/5xx and JSON-RPC rate limit errors.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if rateLimitCodes[rpcErr.ErrorCode()] {
			return true
		}
		msg := strings.ToLower(rpcErr.Error())
		return strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests")
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "eof")
}
