package grpc

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vibast-solutions/ms-go-donations/app/factory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDHeader = "x-request-id"

type requestIDKey struct{}

var grpcLogger = factory.NewModuleLogger("grpc")

func RecoveryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		defer func() {
			if r := recover(); r != nil {
				loggerWithContext(ctx).WithFields(logrus.Fields{
					"method": info.FullMethod,
					"panic":  r,
					"stack":  string(debug.Stack()),
				}).Error("grpc handler panicked")
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

// RequestIDInterceptor rejects calls without x-request-id and echoes it back.
func RequestIDInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		requestID := requestIDFromMetadata(ctx)
		if requestID == "" {
			return nil, status.Error(codes.InvalidArgument, "x-request-id metadata is required")
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, requestID))
		return handler(context.WithValue(ctx, requestIDKey{}, requestID), req)
	}
}

func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := loggerWithContext(ctx).WithFields(logrus.Fields{
			"method":     info.FullMethod,
			"code":       status.Code(err).String(),
			"latency":    time.Since(start).String(),
			"latency_ns": time.Since(start).Nanoseconds(),
		})
		if err != nil {
			entry = entry.WithError(err)
		}
		entry.Info("grpc_request")
		return resp, err
	}
}

func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return requestID
	}
	return requestIDFromMetadata(ctx)
}

func requestIDFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(requestIDHeader) {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

func loggerWithContext(ctx context.Context) logrus.FieldLogger {
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		return grpcLogger.WithField("request_id", requestID)
	}
	return grpcLogger
}
