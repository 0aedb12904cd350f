package controller

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"time"

	logger "github.com/sirupsen/logrus"

	"traderelay/src/model"
)

// ExceptionStore persists captured exceptions.
type ExceptionStore interface {
	Create(ctx context.Context, exception *model.Exception) error
}

// Capture logs err at level and stores it in repo when one is configured.
// Stacks are kept for error and fatal only; warnings are expected rejections.
func Capture(
	ctx context.Context,
	repo ExceptionStore,
	service string,
	module string,
	method string,
	level string,
	err error,
	contextData map[string]interface{},
) {
	if err == nil {
		return
	}

	lvl, parseErr := logger.ParseLevel(level)
	if parseErr != nil {
		lvl = logger.ErrorLevel
	}

	exc := newException(service, module, method, lvl, err)
	if len(contextData) > 0 {
		if b, e := json.Marshal(contextData); e == nil {
			exc.Context = string(b)
		}
	}

	logger.WithFields(logger.Fields{
		"service": service,
		"module":  module,
		"method":  method,
		"kind":    exc.ErrorKind,
		"order":   exc.OrderName,
	}).WithError(err).Log(lvl, "exception captured")

	if repo == nil {
		return
	}
	if e := repo.Create(ctx, exc); e != nil {
		logger.WithError(e).WithField("kind", exc.ErrorKind).Error("failed to persist exception")
	}
}

func newException(service, module, method string, lvl logger.Level, err error) *model.Exception {
	exc := &model.Exception{
		Service:   service,
		Module:    module,
		Method:    method,
		ErrorKind: model.ErrorKind(err),
		Message:   err.Error(),
		Level:     lvl.String(),
		CreatedAt: time.Now(),
	}
	if lvl <= logger.ErrorLevel {
		exc.Stack = string(debug.Stack())
	}

	var orderErr *model.OrderError
	if errors.As(err, &orderErr) && orderErr.Order != nil {
		exc.OrderName = orderErr.Order.OrderName
	}
	return exc
}
