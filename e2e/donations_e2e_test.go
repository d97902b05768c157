//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-donations/app/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	defaultDonationsHTTPBase = "http://localhost:48081"
	defaultDonationsGRPCAddr = "localhost:49091"

	getDonationMethod           = "/donations.DonationsService/GetDonation"
	listApprovedDonationsMethod = "/donations.DonationsService/ListApprovedDonations"
)

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	reqBody := bytes.NewReader(nil)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

func dialDonationsGRPC(t *testing.T, addr string) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype("json")),
	)
	if err != nil {
		t.Fatalf("grpc dial failed: %v", err)
	}
	return conn
}

func grpcContext(apiKey, requestID string) context.Context {
	ctx := context.Background()
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", requestID)
	}
	if apiKey != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "x-api-key", apiKey)
	}
	return ctx
}

func requestID(prefix string) string {
	return fmt.Sprintf("e2e-%s-%d", prefix, time.Now().UnixNano())
}

func TestDonationsE2E(t *testing.T) {
	httpBase := envOrDefault("DONATIONS_HTTP_URL", defaultDonationsHTTPBase)
	grpcAddr := envOrDefault("DONATIONS_GRPC_ADDR", defaultDonationsGRPCAddr)

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	client := newHTTPClient(httpBase)
	conn := dialDonationsGRPC(t, grpcAddr)
	defer conn.Close()

	t.Run("HTTPGeneratesRequestID", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/health", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatal("expected generated x-request-id")
		}
	})

	t.Run("HTTPCreatePixValidation", func(t *testing.T) {
		resp, body := client.do(t, http.MethodPost, "/functions/v1/create-pix-payment", map[string]any{"name": "Ana"}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPPublicVipPackages", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/vip-packages", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPAdminRequiresToken", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/admin/donations", nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPCancelRequiresAdmin", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/functions/v1/cancel-mercadopago-order", map[string]any{"orderId": "1"}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPLoginRejectsUnknownUser", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "nobody@example.com", "password": "wrong-password"}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPInternalUnauthorizedMissingAPIKey", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/internal/donations?steam_id=7656119", nil, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPInternalForbiddenInsufficientAccess", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/internal/donations?steam_id=7656119", nil, map[string]string{"X-API-Key": noAccessAPIKey()})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPInternalGetNotFound", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/internal/donations/999999999", nil, map[string]string{"X-API-Key": gameServerAPIKey()})
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPInternalListApproved", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/internal/donations?steam_id=7656119&limit=5", nil, map[string]string{"X-API-Key": gameServerAPIKey()})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.ListDonationsResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal list donations failed: %v body=%s", err, string(body))
		}
	})

	t.Run("GRPCMissingRequestID", func(t *testing.T) {
		var resp types.DonationEnvelopeResponse
		err := conn.Invoke(grpcContext(gameServerAPIKey(), ""), getDonationMethod, &types.GetDonationRequest{PaymentId: "1"}, &resp)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("GRPCUnauthorizedMissingAPIKey", func(t *testing.T) {
		var resp types.DonationEnvelopeResponse
		err := conn.Invoke(grpcContext("", requestID("grpc-no-auth")), getDonationMethod, &types.GetDonationRequest{PaymentId: "1"}, &resp)
		if status.Code(err) != codes.Unauthenticated {
			t.Fatalf("expected Unauthenticated, got %v", err)
		}
	})

	t.Run("GRPCForbiddenInsufficientAccess", func(t *testing.T) {
		var resp types.DonationEnvelopeResponse
		err := conn.Invoke(grpcContext(noAccessAPIKey(), requestID("grpc-forbidden")), getDonationMethod, &types.GetDonationRequest{PaymentId: "1"}, &resp)
		if status.Code(err) != codes.PermissionDenied {
			t.Fatalf("expected PermissionDenied, got %v", err)
		}
	})

	t.Run("GRPCGetNotFound", func(t *testing.T) {
		var resp types.DonationEnvelopeResponse
		err := conn.Invoke(grpcContext(gameServerAPIKey(), requestID("grpc-get")), getDonationMethod, &types.GetDonationRequest{PaymentId: "999999999"}, &resp)
		if status.Code(err) != codes.NotFound {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("GRPCListApprovedValidation", func(t *testing.T) {
		var resp types.ListDonationsResponse
		err := conn.Invoke(grpcContext(gameServerAPIKey(), requestID("grpc-list-invalid")), listApprovedDonationsMethod, &types.ListApprovedDonationsRequest{}, &resp)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("expected InvalidArgument, got %v", err)
		}
	})

	t.Run("GRPCListApproved", func(t *testing.T) {
		var resp types.ListDonationsResponse
		err := conn.Invoke(grpcContext(gameServerAPIKey(), requestID("grpc-list")), listApprovedDonationsMethod, &types.ListApprovedDonationsRequest{SteamId: "7656119", Limit: 5}, &resp)
		if err != nil {
			t.Fatalf("grpc list approved donations failed: %v", err)
		}
	})
}
