package exchange

import (
	"context"
	"sync"
	"time"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
)

// Order is the record kept for every submission accepted by the SimBroker
type Order struct {
	Side     core.SideType
	Symbol   string
	Quantity float64
	Price    float64
	Time     time.Time
}

// SimBroker fills every well-formed order instantly and remembers what it
// was asked to do. Malformed orders come back as an OrderError, the same
// shape a live broker adapter would produce.
type SimBroker struct {
	log logger.Logger

	mu     sync.Mutex
	orders []Order
}

func NewSimBroker(log logger.Logger) *SimBroker {
	return &SimBroker{log: log}
}

// SubmitOrder implements core.Broker
func (b *SimBroker) SubmitOrder(ctx context.Context, side core.SideType, symbol string, quantity, price float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if quantity <= 0 {
		return &OrderError{Err: core.ErrInvalidQuantity, Symbol: symbol, Quantity: quantity}
	}

	b.mu.Lock()
	b.orders = append(b.orders, Order{
		Side:     side,
		Symbol:   symbol,
		Quantity: quantity,
		Price:    price,
		Time:     time.Now(),
	})
	b.mu.Unlock()

	b.log.Infof("[SIM] %s %s %.0f @ %.2f", side, symbol, quantity, price)
	return nil
}

// Orders returns a copy of every order submitted so far
func (b *SimBroker) Orders() []Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders := make([]Order, len(b.orders))
	copy(orders, b.orders)
	return orders
}
