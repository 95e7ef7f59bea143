package exchange

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/niftybot/core"
	"github.com/raykavin/niftybot/logger"
	zerologger "github.com/raykavin/niftybot/logger/zerolog"
)

func testLogger(t *testing.T) logger.Logger {
	t.Helper()

	log, err := zerologger.NewZerolog("disabled", "2006-01-02 15:04:05", false, false)
	require.NoError(t, err)
	return zerologger.NewAdapter(log.Logger)
}

func TestOrderError(t *testing.T) {
	err := &OrderError{Err: core.ErrInvalidQuantity, Symbol: "TCS", Quantity: -1}

	require.ErrorIs(t, err, core.ErrInvalidQuantity)
	require.Contains(t, err.Error(), "order error")

	var orderErr *OrderError
	require.True(t, errors.As(error(err), &orderErr))
	require.Equal(t, "TCS", orderErr.Symbol)
}
