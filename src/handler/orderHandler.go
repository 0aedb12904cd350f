package handler

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"traderelay/src/model"
	"traderelay/src/repository"
)

type orderSubmitter interface {
	Submit(ctx context.Context, req model.OrderRequest) (*model.OrderResult, error)
}

type positionManager interface {
	SetPositionMode(ctx context.Context, venue, mode string) error
	Positions(ctx context.Context, venue, symbol string) (*model.PositionReport, error)
}

type journalSearcher interface {
	Search(ctx context.Context, options repository.TradeJournalSearchOptions) ([]model.TradeJournal, error)
}

type orderResponse struct {
	Status string             `json:"status"`
	Result *model.OrderResult `json:"result"`
}

// OrderHandler accepts a trade signal and executes it.
func OrderHandler(submitter orderSubmitter, passwordHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.OrderRequest
		if !decode(w, r, &req) {
			return
		}
		if !authorized(passwordHash, req.Password) {
			unauthorized(w, r)
			return
		}

		logger.WithFields(logger.Fields{
			"exchange": req.Exchange,
			"base":     req.Base,
			"quote":    req.Quote,
			"side":     req.Side,
			"order":    req.OrderName,
		}).Info("signal received")

		result, err := submitter.Submit(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, orderResponse{Status: "ok", Result: result})
	}
}

type positionModeRequest struct {
	Password string `json:"password"`
	Exchange string `json:"exchange"`
	Mode     string `json:"mode"`
}

// PositionModeHandler switches a venue between one-way and hedge mode.
func PositionModeHandler(manager positionManager, passwordHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req positionModeRequest
		if !decode(w, r, &req) {
			return
		}
		if !authorized(passwordHash, req.Password) {
			unauthorized(w, r)
			return
		}

		if err := manager.SetPositionMode(r.Context(), req.Exchange, req.Mode); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": req.Mode})
	}
}

type positionsRequest struct {
	Password string `json:"password"`
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
}

// PositionsHandler lists open futures positions of a venue.
func PositionsHandler(manager positionManager, passwordHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req positionsRequest
		if !decode(w, r, &req) {
			return
		}
		if !authorized(passwordHash, req.Password) {
			unauthorized(w, r)
			return
		}

		report, err := manager.Positions(r.Context(), req.Exchange, req.Symbol)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

type journalRequest struct {
	Password string `json:"password"`
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
	Status   string `json:"status"`
	Limit    int    `json:"limit"`
}

const defaultJournalLimit = 50

// JournalHandler returns the latest trade journal entries. repo is nil when
// the database is disabled.
func JournalHandler(repo journalSearcher, passwordHash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req journalRequest
		if !decode(w, r, &req) {
			return
		}
		if !authorized(passwordHash, req.Password) {
			unauthorized(w, r)
			return
		}
		if repo == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "trade journal is disabled"})
			return
		}

		limit := req.Limit
		if limit <= 0 {
			limit = defaultJournalLimit
		}
		entries, err := repo.Search(r.Context(), repository.TradeJournalSearchOptions{
			Exchange: strings.ToUpper(req.Exchange),
			Symbol:   req.Symbol,
			Status:   req.Status,
			Limit:    limit,
		})
		if err != nil {
			logger.WithError(err).Error("failed to search trade journal")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}
