package execution

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/web3guy0/quantframe/pkg/order"
)

// RetryConfig bounds the retry-with-backoff wrapper below.
type RetryConfig struct {
	MaxRetries int           // 0 disables retrying
	BaseDelay  time.Duration // delay before attempt n is BaseDelay * n
}

// DefaultRetryConfig is up to 3 retries (4 attempts in all) with linear
// backoff starting at 100ms per attempt.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
}

// RetryClient wraps a Client and retries SubmitOrder with linear backoff
// on error. Remote errors still surface as data on OrderResult/error; the
// retry only governs how many times the underlying client call is
// attempted before that surfacing happens.
type RetryClient struct {
	inner  Client
	config RetryConfig
}

// NewRetryClient wraps inner with retry-with-backoff on SubmitOrder.
func NewRetryClient(inner Client, cfg RetryConfig) *RetryClient {
	return &RetryClient{inner: inner, config: cfg}
}

func (r *RetryClient) SubmitOrder(req OrderRequest) (OrderResult, error) {
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	var result OrderResult
	var err error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result, err = r.inner.SubmitOrder(req)
		if err == nil && result.Success {
			return result, nil
		}

		if attempt < r.config.MaxRetries {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("client_order_id", req.ClientOrderID).
				Msg("order submission failed, retrying")
			time.Sleep(r.config.BaseDelay * time.Duration(attempt+1))
		}
	}

	return result, err
}

func (r *RetryClient) CancelOrder(id string) error { return r.inner.CancelOrder(id) }
func (r *RetryClient) GetOrderStatus(id string) (*order.Status, error) {
	return r.inner.GetOrderStatus(id)
}
func (r *RetryClient) GetPosition(symbol string) (*PositionInfo, error) {
	return r.inner.GetPosition(symbol)
}
func (r *RetryClient) GetBalance() (BalanceInfo, error) { return r.inner.GetBalance() }
