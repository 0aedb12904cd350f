package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"traderelay/src/connectors"
	"traderelay/src/model"
	"traderelay/src/repository"
)

type mockSubmitter struct {
	result      *model.OrderResult
	err         error
	req         model.OrderRequest
	calledCount int
}

func (m *mockSubmitter) Submit(_ context.Context, req model.OrderRequest) (*model.OrderResult, error) {
	m.calledCount++
	m.req = req
	return m.result, m.err
}

type mockPositionManager struct {
	report *model.PositionReport
	err    error
	venue  string
	mode   string
}

func (m *mockPositionManager) SetPositionMode(_ context.Context, venue, mode string) error {
	m.venue = venue
	m.mode = mode
	return m.err
}

func (m *mockPositionManager) Positions(_ context.Context, venue, symbol string) (*model.PositionReport, error) {
	m.venue = venue
	return m.report, m.err
}

type mockJournalSearcher struct {
	entries []model.TradeJournal
	options repository.TradeJournalSearchOptions
}

func (m *mockJournalSearcher) Search(_ context.Context, options repository.TradeJournalSearchOptions) ([]model.TradeJournal, error) {
	m.options = options
	return m.entries, nil
}

func testHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func postJSON(t *testing.T, h http.Handler, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestOrderHandler_Unauthorized(t *testing.T) {
	submitter := &mockSubmitter{}
	h := OrderHandler(submitter, testHash(t))

	rr := postJSON(t, h, model.OrderRequest{Password: "wrong", Exchange: "GATEIO"})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, submitter.calledCount)
}

func TestOrderHandler_EmptyHashRejects(t *testing.T) {
	submitter := &mockSubmitter{}
	rr := postJSON(t, OrderHandler(submitter, ""), model.OrderRequest{Password: "secret"})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, 0, submitter.calledCount)
}

func TestOrderHandler_InvalidBody(t *testing.T) {
	h := OrderHandler(&mockSubmitter{}, testHash(t))

	req := httptest.NewRequest(http.MethodPost, "/order", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOrderHandler_Success(t *testing.T) {
	submitter := &mockSubmitter{result: &model.OrderResult{ID: "42", Side: "buy"}}
	h := OrderHandler(submitter, testHash(t))

	rr := postJSON(t, h, model.OrderRequest{
		Password: "secret", Exchange: "GATEIO", Base: "BTC", Quote: "USDT", Side: "buy",
		Amount: model.Float64Ptr(1),
	})

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, 1, submitter.calledCount)
	assert.Equal(t, "BTC", submitter.req.Base)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "42", resp.Result.ID)
}

func TestOrderHandler_ErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"validation", model.NewValidationError("side", "unknown side"), http.StatusBadRequest, model.ErrorKindValidation},
		{"unsupported venue", fmt.Errorf("%w: OKX", connectors.ErrExchangeNotSupported), http.StatusBadRequest, model.ErrorKindUnknown},
		{"amount and percent", model.ErrAmountPercentBoth, http.StatusUnprocessableEntity, model.ErrorKindAmountPercentBoth},
		{"order", &model.OrderError{Cause: assert.AnError}, http.StatusInternalServerError, model.ErrorKindOrder},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := OrderHandler(&mockSubmitter{err: tc.err}, testHash(t))
			rr := postJSON(t, h, model.OrderRequest{Password: "secret"})

			assert.Equal(t, tc.code, rr.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestPositionModeHandler(t *testing.T) {
	manager := &mockPositionManager{}
	h := PositionModeHandler(manager, testHash(t))

	rr := postJSON(t, h, positionModeRequest{Password: "secret", Exchange: "GATEIO", Mode: model.PositionModeHedge})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GATEIO", manager.venue)
	assert.Equal(t, model.PositionModeHedge, manager.mode)

	manager.err = model.NewValidationError("mode", "unknown position mode x")
	rr = postJSON(t, h, positionModeRequest{Password: "secret", Exchange: "GATEIO", Mode: "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPositionsHandler(t *testing.T) {
	manager := &mockPositionManager{report: &model.PositionReport{
		Positions: []model.Position{{Symbol: "BTC_USDT", Side: model.PositionSideShort, Size: 2}},
	}}
	h := PositionsHandler(manager, testHash(t))

	rr := postJSON(t, h, positionsRequest{Password: "secret", Exchange: "GATEIO"})
	require.Equal(t, http.StatusOK, rr.Code)

	var report model.PositionReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &report))
	require.Len(t, report.Positions, 1)
	assert.Equal(t, model.PositionSideShort, report.Positions[0].Side)

	manager.err = model.ErrPositionNone
	rr = postJSON(t, h, positionsRequest{Password: "secret", Exchange: "GATEIO"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestJournalHandler(t *testing.T) {
	repo := &mockJournalSearcher{entries: []model.TradeJournal{{ID: 1, Exchange: "GATEIO", Symbol: "BTC_USDT"}}}
	h := JournalHandler(repo, testHash(t))

	rr := postJSON(t, h, journalRequest{Password: "secret", Exchange: "gateio"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "GATEIO", repo.options.Exchange)
	assert.Equal(t, defaultJournalLimit, repo.options.Limit)

	var entries []model.TradeJournal
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestJournalHandler_Disabled(t *testing.T) {
	rr := postJSON(t, JournalHandler(nil, testHash(t)), journalRequest{Password: "secret"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
