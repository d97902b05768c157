package storage

import (
	"context"
	"errors"
	"testing"
)

func TestObjectKey(t *testing.T) {
	cases := map[string]string{
		"123":        "qr/123.png",
		" 12/3 ":     "qr/12-3.png",
		"qr/abc.png": "qr/abc.png",
		"":           "",
	}
	for input, want := range cases {
		if got := ObjectKey(input); got != want {
			t.Fatalf("ObjectKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestPutQRValidatesInput(t *testing.T) {
	store := NewQRStore(nil, "bucket", 0)
	if _, err := store.PutQR(context.Background(), "", []byte{1}); !errors.Is(err, ErrInvalidObject) {
		t.Fatalf("expected ErrInvalidObject, got %v", err)
	}
	if _, err := store.PutQR(context.Background(), "123", nil); !errors.Is(err, ErrInvalidObject) {
		t.Fatalf("expected ErrInvalidObject, got %v", err)
	}
}

func TestEnsureBucketWithoutClient(t *testing.T) {
	store := NewQRStore(nil, "bucket", 0)
	if err := store.EnsureBucket(context.Background()); err == nil {
		t.Fatal("expected error without client")
	}
}
