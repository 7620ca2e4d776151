package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt ")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "corpus.tar.gz")
	client := Client{}
	require.NoError(t, client.Fetch(context.Background(), server.URL, dest))

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	client := Client{MaxRetries: 3, Backoff: time.Millisecond}
	require.NoError(t, client.Fetch(context.Background(), server.URL, dest))
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "out")
	client := Client{MaxRetries: 3, Backoff: time.Millisecond}
	require.Error(t, client.Fetch(context.Background(), server.URL, dest))
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchLeavesNoPartialFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("short"))
	}))
	defer server.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out")
	client := Client{Backoff: time.Millisecond}
	require.Error(t, client.Fetch(context.Background(), server.URL, dest))
	require.NoFileExists(t, dest)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFetchAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	specs := []Spec{
		{URL: server.URL + "/train", Dest: filepath.Join(dir, "train.tar.gz")},
		{URL: server.URL + "/valid", Dest: filepath.Join(dir, "valid.tar.gz")},
		{URL: server.URL + "/test", Dest: filepath.Join(dir, "test.tar.gz")},
	}

	limiter, err := NewLimiter(100, 3)
	require.NoError(t, err)

	client := Client{}
	require.NoError(t, client.FetchAll(context.Background(), specs, 2, limiter))

	for _, spec := range specs {
		require.FileExists(t, spec.Dest)
	}
}
