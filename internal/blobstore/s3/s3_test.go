package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/smallbiznis/checkmapper/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func newFakeS3(t *testing.T) (*httptest.Server, *fakeBucket) {
	t.Helper()
	bucket := &fakeBucket{objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		bucket.mu.Lock()
		bucket.objects[r.URL.Path] = string(body)
		bucket.types[r.URL.Path] = r.Header.Get("Content-Type")
		bucket.mu.Unlock()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, bucket
}

func testConfig(endpoint string) config.S3Config {
	return config.S3Config{
		Bucket:         "checks",
		Region:         "us-east-1",
		Endpoint:       endpoint,
		AccessKey:      "test",
		SecretKey:      "test",
		UsePathStyle:   true,
		PresignSeconds: 60,
	}
}

func TestPutUsesPublicBaseURL(t *testing.T) {
	srv, bucket := newFakeS3(t)
	cfg := testConfig(srv.URL)
	cfg.PublicBaseURL = "https://cdn.example.com"

	store, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "checks/7/CHK-7.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/checks/7/CHK-7.jpg", url)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	require.Contains(t, bucket.objects, "/checks/checks/7/CHK-7.jpg")
	assert.Equal(t, "image/jpeg", bucket.types["/checks/checks/7/CHK-7.jpg"])
}

func TestPutFallsBackToPresignedURL(t *testing.T) {
	srv, _ := newFakeS3(t)
	store, err := New(context.Background(), testConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "checks/7/CHK-7.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, srv.URL+"/checks/checks/7/CHK-7.jpg?"), url)
	assert.Contains(t, url, "X-Amz-Signature=")
}

func TestPutReturnsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`))
	}))
	t.Cleanup(srv.Close)

	store, err := New(context.Background(), testConfig(srv.URL), zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "checks/7/CHK-7.jpg", []byte("jpeg"), "image/jpeg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AccessDenied")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), config.S3Config{}, nil)
	assert.Error(t, err)
}
