package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderErrorUnwrap(t *testing.T) {
	cause := errors.New("insufficient balance")
	order := &MarketOrder{Exchange: ExchangeGateIO, UnifiedSymbol: "BTC_USDT", Side: OrderSideBuy}
	err := fmt.Errorf("submit: %w", &OrderError{Cause: cause, Order: order})

	var orderErr *OrderError
	assert.True(t, errors.As(err, &orderErr))
	assert.Same(t, order, orderErr.Order)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "BTC_USDT")
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrAmountPercentBoth, ErrorKindAmountPercentBoth},
		{fmt.Errorf("%w: timeout", ErrFreeAmountNone), ErrorKindFreeAmountNone},
		{fmt.Errorf("positions: %w", ErrPositionNone), ErrorKindPositionNone},
		{ErrSymbolNotFound, ErrorKindSymbolNotFound},
		{&OrderError{Cause: ErrSymbolNotFound}, ErrorKindOrder},
		{NewValidationError("side", "bad"), ErrorKindValidation},
		{errors.New("boom"), ErrorKindUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ErrorKind(tc.err))
	}
}

func TestOrderResultInfoString(t *testing.T) {
	r := OrderResult{Info: map[string]interface{}{"orderQty": "12.5", "num": 3.0, "empty": ""}}

	v, ok := r.InfoString("orderQty")
	assert.True(t, ok)
	assert.Equal(t, "12.5", v)

	v, ok = r.InfoString("num")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = r.InfoString("empty")
	assert.False(t, ok)
	_, ok = OrderResult{}.InfoString("orderQty")
	assert.False(t, ok)
}
