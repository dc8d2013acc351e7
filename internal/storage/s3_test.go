package storage

import (
	"context"
	"testing"

	"github.com/snapgram/backend/internal/config"
)

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Region: "us-east-1"}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestS3StorageLocation(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{name: "bare key", want: "posts/1/a.jpg"},
		{name: "public url", baseURL: "https://cdn.example.com/", want: "https://cdn.example.com/posts/1/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{
				Bucket:        "media",
				Region:        "us-east-1",
				Endpoint:      "http://localhost:9000",
				PublicBaseURL: tt.baseURL,
			})
			if err != nil {
				t.Fatalf("new storage: %v", err)
			}
			if got := s.location("posts/1/a.jpg"); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestS3StorageRejectsEmptyKey(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	s, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{Bucket: "media", Region: "us-east-1"})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	if _, err := s.Save(context.Background(), "///", nil); err == nil {
		t.Fatal("expected empty key error")
	}
}
