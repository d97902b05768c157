package pix

import (
	"bytes"
	"errors"
	"testing"
)

const samplePayload = "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-4266554400005204000053039865802BR5913Setor 7 PVE6008BRASILIA62070503***6304ABCD"

func TestRenderBase64RoundTrip(t *testing.T) {
	encoded, err := RenderBase64(samplePayload, 128)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	png, err := DecodeBase64(encoded)
	if err != nil {
		t.Fatalf("expected decodable png, got %v", err)
	}
	if !bytes.HasPrefix(png, pngSignature) {
		t.Fatal("expected png signature")
	}

	if _, err := DecodeBase64(DataURI(encoded)); err != nil {
		t.Fatalf("expected data uri to decode, got %v", err)
	}
}

func TestRenderRejectsEmptyPayload(t *testing.T) {
	if _, err := RenderBase64("   ", 0); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestDecodeBase64RejectsNonPNG(t *testing.T) {
	if _, err := DecodeBase64("aGVsbG8="); err == nil {
		t.Fatal("expected error for non-png content")
	}
}

func TestDataURI(t *testing.T) {
	if got := DataURI("abc"); got != "data:image/png;base64,abc" {
		t.Fatalf("unexpected data uri: %s", got)
	}
	if got := DataURI("data:image/png;base64,abc"); got != "data:image/png;base64,abc" {
		t.Fatalf("expected existing data uri untouched, got %s", got)
	}
}
