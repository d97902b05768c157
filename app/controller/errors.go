package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"github.com/vibast-solutions/ms-go-donations/app/service"
	"github.com/vibast-solutions/ms-go-donations/app/types"
)

var errorStatuses = []struct {
	kind   error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUpstream, http.StatusBadGateway},
	{service.ErrConfiguration, http.StatusInternalServerError},
	{service.ErrRateLimited, http.StatusTooManyRequests},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
}

// respondError maps a service error to its status code. Errors without a kind
// are logged and hidden behind a generic message.
func respondError(ctx echo.Context, logger logrus.FieldLogger, err error, operation string) error {
	for _, candidate := range errorStatuses {
		if errors.Is(err, candidate.kind) {
			if candidate.status >= http.StatusInternalServerError {
				factory.LoggerWithContext(logger, ctx).WithError(err).Warn(operation + " failed")
			}
			return writeError(ctx, candidate.status, err.Error())
		}
	}

	factory.LoggerWithContext(logger, ctx).WithError(err).Error(operation + " failed")
	return writeError(ctx, http.StatusInternalServerError, "internal server error")
}

func writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
