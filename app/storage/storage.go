package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var ErrInvalidObject = errors.New("invalid object")

type Config struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	UseSSL     bool
	Bucket     string
	PresignTTL time.Duration
}

func NewClient(cfg Config) (*minio.Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return client, nil
}

// QRStore hosts rendered QR images so emails can link them instead of inlining data URIs.
type QRStore struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration

	ensureOnce sync.Once
	ensureErr  error
}

func NewQRStore(client *minio.Client, bucket string, presignTTL time.Duration) *QRStore {
	if presignTTL <= 0 {
		presignTTL = 7 * 24 * time.Hour
	}
	return &QRStore{
		client:     client,
		bucket:     strings.TrimSpace(bucket),
		presignTTL: presignTTL,
	}
}

func (s *QRStore) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", s.bucket, s.ensureErr)
	}
	return nil
}

// PutQR uploads the PNG under key and returns a presigned GET URL for it.
func (s *QRStore) PutQR(ctx context.Context, key string, png []byte) (string, error) {
	key = ObjectKey(key)
	if key == "" || len(png) == 0 {
		return "", ErrInvalidObject
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return "", err
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(png), int64(len(png)), minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return "", fmt.Errorf("put object to s3: %w", err)
	}

	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return presigned.String(), nil
}

// ObjectKey normalizes an identifier into "qr/<id>.png".
func ObjectKey(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "qr/") && strings.HasSuffix(id, ".png") {
		return id
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", " ", "-")
	return "qr/" + replacer.Replace(id) + ".png"
}
