package factory

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func NewModuleLogger(module string) logrus.FieldLogger {
	return logrus.WithField("module", module)
}

// LoggerWithContext tags the logger with the request id and route of the current request.
func LoggerWithContext(logger logrus.FieldLogger, ctx echo.Context) logrus.FieldLogger {
	if ctx == nil {
		return logger
	}

	requestID := strings.TrimSpace(ctx.Response().Header().Get(echo.HeaderXRequestID))
	if requestID == "" {
		requestID = strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
	}

	fields := logrus.Fields{}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	if path := ctx.Path(); path != "" {
		fields["route"] = path
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.WithFields(fields)
}
