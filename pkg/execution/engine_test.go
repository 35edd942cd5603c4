package execution

import (
	"time"

	"github.com/web3guy0/quantframe/pkg/decimal"
	"github.com/web3guy0/quantframe/pkg/order"
)

// fakeClient is a minimal in-memory Client for engine tests.
type fakeClient struct {
	nextID    uint64
	submitErr error
	rejectAll bool
	cancelErr error
	statuses  map[string]order.Status
}

func newFakeClient() *fakeClient {
	return &fakeClient{statuses: make(map[string]order.Status)}
}

func (f *fakeClient) SubmitOrder(req OrderRequest) (OrderResult, error) {
	if f.submitErr != nil {
		return OrderResult{Success: false, ErrorMessage: f.submitErr.Error()}, f.submitErr
	}
	if f.rejectAll {
		return OrderResult{Success: false, ErrorMessage: "rejected by venue"}, nil
	}
	f.nextID++
	id := f.nextID
	f.statuses[req.ClientOrderID] = order.StatusOpen
	return OrderResult{
		Success:         true,
		OrderID:         req.ClientOrderID,
		ExchangeOrderID: &id,
		Status:          order.StatusOpen,
		FilledQuantity:  decimal.Zero,
		Timestamp:       time.Now(),
	}, nil
}

func (f *fakeClient) CancelOrder(id string) error {
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.statuses[id] = order.StatusCancelled
	return nil
}

func (f *fakeClient) GetOrderStatus(id string) (*order.Status, error) {
	s, ok := f.statuses[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (f *fakeClient) GetPosition(symbol string) (*PositionInfo, error) { return nil, nil }
func (f *fakeClient) GetBalance() (BalanceInfo, error)                 { return BalanceInfo{}, nil }
