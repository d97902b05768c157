package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/config"
)

func TestEnsureRequestIDGeneratesWhenMissing(t *testing.T) {
	e := echo.New()
	e.Use(ensureRequestID())
	var seen string
	e.GET("/health", func(ctx echo.Context) error {
		seen = ctx.Request().Header.Get(echo.HeaderXRequestID)
		return ctx.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatal("expected generated request id on the request")
	}
	if rec.Header().Get(echo.HeaderXRequestID) != seen {
		t.Fatalf("expected response header %q, got %q", seen, rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestEnsureRequestIDKeepsIncoming(t *testing.T) {
	e := echo.New()
	e.Use(ensureRequestID())
	e.GET("/health", func(ctx echo.Context) error { return ctx.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Header().Get(echo.HeaderXRequestID) != "req-42" {
		t.Fatalf("expected req-42, got %q", rec.Header().Get(echo.HeaderXRequestID))
	}
}

func TestConfigureLogging(t *testing.T) {
	prevLevel := logrus.GetLevel()
	prevFormatter := logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "debug", Format: "json"}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if logrus.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", logrus.GetLevel())
	}
	if _, ok := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected JSON formatter, got %T", logrus.StandardLogger().Formatter)
	}

	if err := configureLogging(&config.Config{Log: config.LogConfig{Level: "loud"}}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
