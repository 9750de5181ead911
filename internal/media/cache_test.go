package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/zaptalkhq/zaptalk/internal/wagateway"
)

// memStore is an in-memory storage.Provider for tests.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) AccessPath(key string) string { return "/media/" + key }

func (s *memStore) only(t *testing.T) (string, []byte) {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.objects) != 1 {
		t.Fatalf("expected exactly one stored object, got %d", len(s.objects))
	}
	for k, v := range s.objects {
		return k, v
	}
	return "", nil
}

type fakeGateway struct {
	download wagateway.MediaDownload
	err      error
	calls    int
}

func (g *fakeGateway) DownloadMediaByMessageID(context.Context, string, string, string) (wagateway.MediaDownload, error) {
	g.calls++
	return g.download, g.err
}

var jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fake image body")...)

func TestCacheFetchPlainURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(jpegBytes)
	}))
	defer srv.Close()

	store := newMemStore()
	cache := NewCache(nil, store, nil, 0)

	result, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentImage,
		Ref:          Ref{Kind: RefURL, Value: srv.URL + "/a"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Mime != "image/jpeg" {
		t.Errorf("Mime = %q, want sniffed image/jpeg", result.Mime)
	}
	key, data := store.only(t)
	if !strings.HasPrefix(key, "conn1/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("storage key = %q", key)
	}
	if !bytes.Equal(data, jpegBytes) {
		t.Error("stored bytes differ from source")
	}
	if result.AccessPath != "/media/"+key {
		t.Errorf("AccessPath = %q", result.AccessPath)
	}
}

func TestCacheFetchInline(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	cache := NewCache(nil, store, nil, 0)

	encoded := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegBytes)
	result, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentImage,
		Ref:          Ref{Kind: RefInline, Value: encoded, Mime: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Mime != "image/jpeg" {
		t.Errorf("Mime = %q", result.Mime)
	}
	_, data := store.only(t)
	if !bytes.Equal(data, jpegBytes) {
		t.Error("stored bytes differ from decoded inline data")
	}
}

func TestCacheFetchEncryptedURL(t *testing.T) {
	t.Parallel()

	key, err := NewMediaKey()
	if err != nil {
		t.Fatalf("NewMediaKey: %v", err)
	}
	blob, err := Encrypt(jpegBytes, key, wagateway.ContentImage)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(blob)
	}))
	defer srv.Close()

	store := newMemStore()
	cache := NewCache(nil, store, nil, 0)

	result, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentImage,
		// The .enc suffix marks the URL as an encrypted CDN blob.
		Ref:         Ref{Kind: RefURL, Value: srv.URL + "/file.enc"},
		MediaKeyB64: base64.StdEncoding.EncodeToString(key),
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Mime != "image/jpeg" {
		t.Errorf("Mime = %q, want sniffed image/jpeg", result.Mime)
	}
	_, data := store.only(t)
	if !bytes.Equal(data, jpegBytes) {
		t.Error("stored bytes are not the decrypted plaintext")
	}
}

func TestCacheFetchEncryptedURLWithoutKeyUsesGateway(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	gw := &fakeGateway{download: wagateway.MediaDownload{
		Base64: base64.StdEncoding.EncodeToString(jpegBytes),
		Mime:   "image/jpeg",
	}}
	cache := NewCache(nil, store, gw, 0)

	_, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		InstanceID:   "inst1",
		Token:        "tok",
		ContentType:  wagateway.ContentImage,
		Ref:          Ref{Kind: RefURL, Value: "https://mmg.whatsapp.net/d/f/abc.enc"},
		MessageID:    "MSG1",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gw.calls != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.calls)
	}
	_, data := store.only(t)
	if !bytes.Equal(data, jpegBytes) {
		t.Error("stored bytes differ from gateway delivery")
	}
}

func TestCacheFetchByID(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	gw := &fakeGateway{download: wagateway.MediaDownload{
		Base64: base64.StdEncoding.EncodeToString([]byte("plain document")),
	}}
	cache := NewCache(nil, store, gw, 0)

	result, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentDocument,
		Ref:          Ref{Kind: RefByID, Value: "MSG9"},
		MessageID:    "MSG9",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result.Mime != "application/octet-stream" {
		t.Errorf("Mime = %q, want document default", result.Mime)
	}
	key, _ := store.only(t)
	if !strings.HasSuffix(key, ".bin") {
		t.Errorf("storage key = %q, want .bin fallback extension", key)
	}
}

func TestCacheFetchNone(t *testing.T) {
	t.Parallel()

	cache := NewCache(nil, newMemStore(), nil, 0)
	_, err := cache.Fetch(context.Background(), FetchRequest{Ref: Ref{}})
	if !errors.Is(err, ErrNoMedia) {
		t.Errorf("Fetch = %v, want ErrNoMedia", err)
	}
}

func TestCacheFetchTooLarge(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	cache := NewCache(nil, newMemStore(), nil, 1024)
	_, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentImage,
		Ref:          Ref{Kind: RefURL, Value: srv.URL},
	})
	if !errors.Is(err, ErrAssetTooLarge) {
		t.Errorf("Fetch = %v, want ErrAssetTooLarge", err)
	}
}

func TestCacheFetchHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cache := NewCache(nil, newMemStore(), nil, 0)
	_, err := cache.Fetch(context.Background(), FetchRequest{
		ConnectionID: "conn1",
		ContentType:  wagateway.ContentImage,
		Ref:          Ref{Kind: RefURL, Value: srv.URL},
	})
	if err == nil {
		t.Error("expected error for non-200 response")
	}
}
