// Package exchange holds the market data and order execution adapters used
// by the engine. The simulated implementations generate deterministic
// random-walk candles and fill every order instantly, which keeps the whole
// engine runnable without broker connectivity.
package exchange

import "fmt"

// OrderError decorates an execution failure with the order that caused it
type OrderError struct {
	Err      error
	Symbol   string
	Quantity float64
}

// Error implements the error interface
func (o *OrderError) Error() string {
	return fmt.Sprintf("order error: %v", o.Err)
}

// Unwrap exposes the underlying cause
func (o *OrderError) Unwrap() error {
	return o.Err
}
