package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traderelay/src/connectors"
	"traderelay/src/model"
	"traderelay/src/notify"
)

type fakeExchange struct {
	initErr   error
	orderErr  error
	modeErr   error
	positions *model.PositionReport
	result    *model.OrderResult
	mode      string
	calls     []string
}

var _ connectors.Exchange = (*fakeExchange)(nil)

func (f *fakeExchange) InitInfo(_ context.Context, _ *model.MarketOrder) error {
	f.calls = append(f.calls, "InitInfo")
	return f.initErr
}

func (f *fakeExchange) GetTicker(context.Context, string) (*connectors.Ticker, error) {
	return &connectors.Ticker{}, nil
}
func (f *fakeExchange) GetPrice(context.Context, string) (float64, error)   { return 0, nil }
func (f *fakeExchange) GetBalance(context.Context, string) (float64, error) { return 0, nil }
func (f *fakeExchange) GetAmount(_ context.Context, o *model.MarketOrder) (float64, error) {
	return o.AmountValue(), nil
}
func (f *fakeExchange) SetLeverage(context.Context, int, string) error { return nil }

func (f *fakeExchange) SetPositionMode(_ context.Context, mode string) error {
	f.calls = append(f.calls, "SetPositionMode")
	if f.modeErr != nil {
		return f.modeErr
	}
	f.mode = mode
	return nil
}

func (f *fakeExchange) PositionMode() string { return f.mode }

func (f *fakeExchange) GetFuturesPosition(_ context.Context, symbol string, all bool) (*model.PositionReport, error) {
	f.calls = append(f.calls, "GetFuturesPosition")
	if f.positions == nil {
		return nil, model.ErrPositionNone
	}
	return f.positions, nil
}

func (f *fakeExchange) submit(name string, order *model.MarketOrder) (*model.OrderResult, error) {
	f.calls = append(f.calls, name)
	if f.orderErr != nil {
		return nil, &model.OrderError{Cause: f.orderErr, Order: order}
	}
	if f.result != nil {
		return f.result, nil
	}
	return &model.OrderResult{ID: "1", Side: order.Side, Amount: order.Amount}, nil
}

func (f *fakeExchange) MarketOrder(_ context.Context, o *model.MarketOrder) (*model.OrderResult, error) {
	return f.submit("MarketOrder", o)
}
func (f *fakeExchange) MarketBuy(_ context.Context, o *model.MarketOrder) (*model.OrderResult, error) {
	return f.submit("MarketBuy", o)
}
func (f *fakeExchange) MarketSell(_ context.Context, o *model.MarketOrder) (*model.OrderResult, error) {
	return f.submit("MarketSell", o)
}
func (f *fakeExchange) MarketEntry(_ context.Context, o *model.MarketOrder) (*model.OrderResult, error) {
	return f.submit("MarketEntry", o)
}
func (f *fakeExchange) MarketClose(_ context.Context, o *model.MarketOrder) (*model.OrderResult, error) {
	return f.submit("MarketClose", o)
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (s *recordingSender) Send(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

type fakeJournal struct {
	entries []*model.TradeJournal
	err     error
}

func (j *fakeJournal) Create(_ context.Context, entry *model.TradeJournal) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entry)
	return nil
}

type fakeExceptions struct {
	captured []*model.Exception
}

func (e *fakeExceptions) Create(_ context.Context, exc *model.Exception) error {
	e.captured = append(e.captured, exc)
	return nil
}

func parseOrder(t *testing.T, req model.OrderRequest) *model.MarketOrder {
	t.Helper()
	order, err := model.NewMarketOrder(req)
	require.NoError(t, err)
	return order
}

func newTestController(ex *fakeExchange, sender *recordingSender, journal *fakeJournal, exceptions *fakeExceptions) (*OrderController, *notify.Notifier) {
	n := notify.NewNotifier(sender, 1)
	c := NewOrderController(model.ExchangeGateIO, ex, n, nil, nil, Config{ServiceName: "test"})
	if journal != nil {
		c.journal = journal
	}
	if exceptions != nil {
		c.exceptions = exceptions
	}
	return c, n
}

func TestOrderController_DispatchBySide(t *testing.T) {
	cases := []struct {
		name string
		req  model.OrderRequest
		want string
	}{
		{"spot buy", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt", Side: "buy", Amount: model.Float64Ptr(1)}, "MarketBuy"},
		{"spot sell", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt", Side: "sell", Percent: model.Float64Ptr(50)}, "MarketSell"},
		{"futures entry", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt.p", Side: "entry/buy", Amount: model.Float64Ptr(3)}, "MarketEntry"},
		{"futures bare side", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt.p", Side: "sell", Amount: model.Float64Ptr(3)}, "MarketEntry"},
		{"futures close", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt.p", Side: "close/sell"}, "MarketClose"},
		{"spot close", model.OrderRequest{Exchange: "gateio", Base: "btc", Quote: "usdt", Side: "close/sell"}, "MarketClose"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ex := &fakeExchange{}
			c, n := newTestController(ex, &recordingSender{}, &fakeJournal{}, nil)

			_, err := c.Execute(context.Background(), parseOrder(t, tc.req))
			require.NoError(t, err)
			require.NoError(t, n.Wait())

			assert.Equal(t, []string{"InitInfo", tc.want}, ex.calls)
		})
	}
}

func TestOrderController_ExecuteSuccessNotifiesAndJournals(t *testing.T) {
	ex := &fakeExchange{result: &model.OrderResult{
		ID:           "42",
		Side:         "buy",
		FilledQty:    model.StringPtr("10"),
		AvgDealPrice: model.StringPtr("5000"),
	}}
	sender := &recordingSender{}
	journal := &fakeJournal{}
	c, n := newTestController(ex, sender, journal, nil)

	order := parseOrder(t, model.OrderRequest{
		Exchange: "GATEIO", Base: "BTC", Quote: "USDT.P", Side: "entry/buy",
		Amount: model.Float64Ptr(10), Leverage: model.IntPtr(5), OrderName: "breakout",
	})
	result, err := c.Execute(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "42", result.ID)
	require.NoError(t, n.Wait())

	require.Len(t, sender.msgs, 1)
	qty, ok := sender.msgs[0].Embed.Field(notify.FieldContract)
	require.True(t, ok)
	assert.Equal(t, "10 (평균 체결가: 5000)", qty)

	require.Len(t, journal.entries, 1)
	entry := journal.entries[0]
	assert.Equal(t, model.TradeStatusFilled, entry.Status)
	assert.Equal(t, "42", entry.ExchangeOrderID)
	assert.Equal(t, "BTC_USDT", entry.Symbol)
	assert.Equal(t, notify.FieldContract, entry.FieldName)
	assert.Equal(t, "10 (평균 체결가: 5000)", entry.AmountDisplay)
	assert.Equal(t, "breakout", entry.OrderName)
	assert.Equal(t, 5, *entry.Leverage)
}

func TestOrderController_OrderErrorIsRoutedAndJournaled(t *testing.T) {
	ex := &fakeExchange{orderErr: errors.New("insufficient margin")}
	sender := &recordingSender{}
	journal := &fakeJournal{}
	exceptions := &fakeExceptions{}
	c, n := newTestController(ex, sender, journal, exceptions)

	order := parseOrder(t, model.OrderRequest{
		Exchange: "GATEIO", Base: "ETH", Quote: "USDT", Side: "buy",
		Amount: model.Float64Ptr(1), OrderName: "dip",
	})
	_, err := c.Execute(context.Background(), order)
	require.Error(t, err)
	require.NoError(t, n.Wait())

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "dip", sender.msgs[0].Embed.Title)
	assert.Equal(t, notify.ColorError, sender.msgs[0].Embed.Color)

	require.Len(t, journal.entries, 1)
	assert.Equal(t, model.TradeStatusError, journal.entries[0].Status)
	assert.Equal(t, model.ErrorKindOrder, journal.entries[0].ErrorKind)
	require.NotNil(t, journal.entries[0].ErrorMessage)
	assert.Contains(t, *journal.entries[0].ErrorMessage, "insufficient margin")

	require.Len(t, exceptions.captured, 1)
	assert.Equal(t, model.ErrorKindOrder, exceptions.captured[0].ErrorKind)
	assert.Equal(t, "dip", exceptions.captured[0].OrderName)
	assert.Equal(t, "Execute", exceptions.captured[0].Method)
}

func TestOrderController_InitInfoErrorUsesVenueTitle(t *testing.T) {
	ex := &fakeExchange{initErr: model.ErrSymbolNotFound}
	sender := &recordingSender{}
	c, n := newTestController(ex, sender, &fakeJournal{}, nil)

	order := parseOrder(t, model.OrderRequest{Exchange: "GATEIO", Base: "NOPE", Quote: "USDT", Side: "buy", Amount: model.Float64Ptr(1)})
	_, err := c.Execute(context.Background(), order)
	assert.ErrorIs(t, err, model.ErrSymbolNotFound)
	require.NoError(t, n.Wait())

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, "GATEIO error", sender.msgs[0].Embed.Title)
	assert.Equal(t, []string{"InitInfo"}, ex.calls)
}

func TestOrderController_JournalFailureIsCombined(t *testing.T) {
	journalErr := errors.New("disk full")
	ex := &fakeExchange{orderErr: errors.New("rejected")}
	c, n := newTestController(ex, &recordingSender{}, &fakeJournal{err: journalErr}, nil)

	order := parseOrder(t, model.OrderRequest{Exchange: "GATEIO", Base: "BTC", Quote: "USDT", Side: "sell", Amount: model.Float64Ptr(1)})
	_, err := c.Execute(context.Background(), order)
	require.NoError(t, n.Wait())

	assert.ErrorIs(t, err, journalErr)
	var orderErr *model.OrderError
	assert.True(t, errors.As(err, &orderErr))
}

func TestOrderController_JournalFailureDoesNotFailFill(t *testing.T) {
	ex := &fakeExchange{}
	c, n := newTestController(ex, &recordingSender{}, &fakeJournal{err: errors.New("disk full")}, nil)

	order := parseOrder(t, model.OrderRequest{Exchange: "GATEIO", Base: "BTC", Quote: "USDT", Side: "sell", Amount: model.Float64Ptr(1)})
	_, err := c.Execute(context.Background(), order)
	assert.NoError(t, err)
	require.NoError(t, n.Wait())
}

func TestOrderController_AlertOnSignal(t *testing.T) {
	ex := &fakeExchange{}
	sender := &recordingSender{}
	n := notify.NewNotifier(sender, 1)
	c := NewOrderController(model.ExchangeGateIO, ex, n, nil, nil, Config{AlertOnSignal: true})

	order := parseOrder(t, model.OrderRequest{Exchange: "GATEIO", Base: "BTC", Quote: "USDT", Side: "buy", Amount: model.Float64Ptr(1)})
	_, err := c.Execute(context.Background(), order)
	require.NoError(t, err)
	require.NoError(t, n.Wait())

	require.Len(t, sender.msgs, 2)
}

func TestOrderController_SetPositionMode(t *testing.T) {
	ex := &fakeExchange{mode: model.PositionModeOneWay}
	sender := &recordingSender{}
	c, n := newTestController(ex, sender, nil, nil)

	require.NoError(t, c.SetPositionMode(context.Background(), model.PositionModeHedge))
	assert.Equal(t, model.PositionModeHedge, c.PositionMode())

	err := c.SetPositionMode(context.Background(), "sideways")
	var validationErr *model.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.Equal(t, model.PositionModeHedge, c.PositionMode())

	ex.modeErr = errors.New("positions open")
	assert.Error(t, c.SetPositionMode(context.Background(), model.PositionModeOneWay))
	assert.Equal(t, model.PositionModeHedge, c.PositionMode())

	require.NoError(t, n.Wait())
	require.Len(t, sender.msgs, 2)
	assert.Equal(t, "mode: unknown position mode sideways", sender.msgs[0].Content)
	assert.Equal(t, "GATEIO error", sender.msgs[1].Embed.Title)
}

func TestOrderController_Positions(t *testing.T) {
	ex := &fakeExchange{}
	exceptions := &fakeExceptions{}
	c, _ := newTestController(ex, &recordingSender{}, nil, exceptions)

	_, err := c.Positions(context.Background(), "BTC_USDT")
	assert.ErrorIs(t, err, model.ErrPositionNone)
	require.Len(t, exceptions.captured, 1)
	assert.Equal(t, model.ErrorKindPositionNone, exceptions.captured[0].ErrorKind)

	ex.positions = &model.PositionReport{Positions: []model.Position{{Symbol: "BTC_USDT", Side: model.PositionSideLong, Size: 3}}}
	report, err := c.Positions(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, report.Positions, 1)
}
