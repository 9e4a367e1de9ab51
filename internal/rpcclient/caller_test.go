package rpcclient

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type codeError struct {
	code int
	msg  string
}

func (e codeError) Error() string  { return e.msg }
func (e codeError) ErrorCode() int { return e.code }

func fastPolicy() Policy {
	return Policy{
		RequestTimeout: time.Second,
		RetryInitial:   time.Millisecond,
		RetryMax:       3,
	}
}

func TestRetryable(t *testing.T) {
	tests := map[string]struct {
		err  error
		want bool
	}{
		"nil":              {nil, false},
		"deadline":         {context.DeadlineExceeded, true},
		"canceled":         {context.Canceled, false},
		"http 429":         {rpc.HTTPError{StatusCode: 429}, true},
		"http 503":         {rpc.HTTPError{StatusCode: 503}, true},
		"http 400":         {rpc.HTTPError{StatusCode: 400}, false},
		"limit code":       {codeError{-32005, "limit exceeded"}, true},
		"rate limit text":  {codeError{-32000, "Rate limit reached"}, true},
		"header not found": {codeError{-32000, "header not found"}, false},
		"eof":              {io.ErrUnexpectedEOF, true},
		"other":            {errors.New("boom"), false},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, test.want, Retryable(test.err))
		})
	}
}

func TestRetryingCaller_RetriesTransientErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)

	gomock.InOrder(
		next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_chainId").Return(context.DeadlineExceeded),
		next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_chainId").Return(codeError{-32005, "slow down"}),
		next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_chainId").Return(nil),
	)

	c := NewRetryingCaller(next, fastPolicy())
	var out string
	require.NoError(t, c.CallContext(context.Background(), &out, "eth_chainId"))
}

func TestRetryingCaller_GivesUpAfterMaxRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)

	// one attempt plus three retries
	next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_getCode", gomock.Any(), gomock.Any()).
		Return(rpc.HTTPError{StatusCode: 429}).Times(4)

	c := NewRetryingCaller(next, fastPolicy())
	err := c.CallContext(context.Background(), nil, "eth_getCode", "0x01", "latest")
	require.Error(t, err)
	var httpErr rpc.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 429, httpErr.StatusCode)
}

func TestRetryingCaller_DoesNotRetryPermanentErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)

	notFound := codeError{-32000, "header not found"}
	next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_getBalance", gomock.Any(), gomock.Any()).
		Return(notFound).Times(1)

	c := NewRetryingCaller(next, fastPolicy())
	err := c.CallContext(context.Background(), nil, "eth_getBalance", "0x01", "0x10")
	require.ErrorIs(t, err, notFound)
}

func TestRetryingCaller_BatchRetriesOnElementError(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)

	gomock.InOrder(
		next.EXPECT().BatchCallContext(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b []rpc.BatchElem) error {
				b[1].Error = codeError{429, "too many requests"}
				return nil
			}),
		next.EXPECT().BatchCallContext(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b []rpc.BatchElem) error {
				require.Nil(t, b[1].Error, "element errors must be reset between attempts")
				return nil
			}),
	)

	c := NewRetryingCaller(next, fastPolicy())
	batch := []rpc.BatchElem{{Method: "eth_getBalance"}, {Method: "eth_getCode"}}
	require.NoError(t, c.BatchCallContext(context.Background(), batch))
}

func TestRetryingCaller_StopsWhenContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_blockNumber").DoAndReturn(
		func(ctx context.Context, _ interface{}, _ string, _ ...interface{}) error {
			cancel()
			return context.Canceled
		}).Times(1)

	c := NewRetryingCaller(next, fastPolicy())
	err := c.CallContext(ctx, nil, "eth_blockNumber")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRetryingCaller_RateLimits(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := NewMockCaller(ctrl)
	next.EXPECT().CallContext(gomock.Any(), gomock.Any(), "eth_chainId").Return(nil).Times(3)

	policy := fastPolicy()
	policy.RateLimit = 20
	policy.RateBurst = 1
	c := NewRetryingCaller(next, policy)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.CallContext(context.Background(), nil, "eth_chainId"))
	}
	// burst of one, then two waits of 50ms each
	require.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
