package controller

import (
	"context"
	"fmt"
	"testing"

	logger "github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traderelay/src/model"
)

func TestCapture(t *testing.T) {
	t.Run("nil error is ignored", func(t *testing.T) {
		store := &fakeExceptions{}
		Capture(context.Background(), store, "svc", "m", "f", "error", nil, nil)
		assert.Empty(t, store.captured)
	})

	t.Run("order error keeps order name and stack", func(t *testing.T) {
		store := &fakeExceptions{}
		order := &model.MarketOrder{OrderName: "btc long"}
		err := fmt.Errorf("submit: %w", &model.OrderError{Cause: assert.AnError, Order: order})

		Capture(context.Background(), store, "svc", "OrderController", "Execute", "error", err,
			map[string]interface{}{"symbol": "BTC_USDT"})

		require.Len(t, store.captured, 1)
		exc := store.captured[0]
		assert.Equal(t, model.ErrorKindOrder, exc.ErrorKind)
		assert.Equal(t, "btc long", exc.OrderName)
		assert.Equal(t, "error", exc.Level)
		assert.NotEmpty(t, exc.Stack)
		assert.JSONEq(t, `{"symbol":"BTC_USDT"}`, exc.Context)
	})

	t.Run("warnings skip the stack", func(t *testing.T) {
		hook := logrustest.NewGlobal()
		defer hook.Reset()

		store := &fakeExceptions{}
		Capture(context.Background(), store, "svc", "Dispatcher", "Submit", "warn",
			model.NewValidationError("side", "unknown side"), nil)

		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logger.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, model.ErrorKindValidation, hook.LastEntry().Data["kind"])
		require.Len(t, store.captured, 1)
		assert.Equal(t, "warning", store.captured[0].Level)
		assert.Empty(t, store.captured[0].Stack)
		assert.Empty(t, store.captured[0].Context)
	})

	t.Run("unknown level falls back to error", func(t *testing.T) {
		store := &fakeExceptions{}
		Capture(context.Background(), nil, "svc", "m", "f", "loud", assert.AnError, nil)
		Capture(context.Background(), store, "svc", "m", "f", "loud", assert.AnError, nil)

		require.Len(t, store.captured, 1)
		assert.Equal(t, "error", store.captured[0].Level)
	})
}
