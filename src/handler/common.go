package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"traderelay/src/connectors"
	"traderelay/src/model"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// authorized reports whether password matches the configured bcrypt hash. An
// empty hash rejects every request.
func authorized(passwordHash, password string) bool {
	if passwordHash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)) == nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}

// writeError maps pipeline errors to a status: bad requests for malformed or
// unsupported signals, 500 for everything that failed at the venue.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var validationErr *model.ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, connectors.ErrExchangeNotSupported):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrAmountPercentBoth):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: model.ErrorKind(err)})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	logger.WithField("remote", r.RemoteAddr).Warn("rejected signal with wrong password")
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
}
