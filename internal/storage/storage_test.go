package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeDataURL(t *testing.T) {
	b, err := DecodeDataURL("data:image/png;base64,aGVsbG8=", "image/jpeg")
	if err != nil || b.MimeType != "image/png" || string(b.Data) != "hello" || b.Ext() != "png" {
		t.Fatalf("data url = %+v, %v", b, err)
	}
	b, err = DecodeDataURL("aGVsbG8", "image/jpeg")
	if err != nil || b.MimeType != "image/jpeg" || b.Ext() != "jpg" {
		t.Fatalf("bare payload = %+v, %v", b, err)
	}
	for _, bad := range []string{"data:image/png,aGVsbG8=", "data:image/png;base64", "!!!", ""} {
		if _, err := DecodeDataURL(bad, "image/jpeg"); !errors.Is(err, ErrBadEncoding) {
			t.Errorf("DecodeDataURL(%q) = %v", bad, err)
		}
	}
}

func TestMinioStore_PresignIsOffline(t *testing.T) {
	m, err := newMinioStore(MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "repairbot"})
	if err != nil {
		t.Fatalf("newMinioStore: %v", err)
	}
	u, err := m.PresignGet(context.Background(), "photos/2506-001.jpg", time.Hour)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(u, "/repairbot/photos/2506-001.jpg") || !strings.Contains(u, "X-Amz-Signature=") {
		t.Fatalf("presigned url = %s", u)
	}
}

func TestNewMinioStore_BadEndpoint(t *testing.T) {
	if _, err := NewMinioStore(context.Background(), MinioConfig{Endpoint: "http://bad/endpoint", Bucket: "b"}); err == nil {
		t.Fatalf("expected init error")
	}
}
