package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCheckKey(t *testing.T) {
	good := newKey("Spring_300x250_2026-03-14.zip")
	assert.NoError(t, checkKey(good))
	assert.Equal(t, "Spring_300x250_2026-03-14.zip", NameOf(good))

	for _, k := range []string{"", "x.zip", "../x.zip", "not-a-uuid/x.zip", good + "/more", strings.Split(good, "/")[0] + "/.."} {
		assert.ErrorIs(t, checkKey(k), ErrInvalidKey, k)
	}
}

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	ctx := context.Background()

	st, err := ls.Put(ctx, "Bundle.zip", []byte("PK\x03\x04data"))
	require.NoError(t, err)
	assert.Equal(t, "Bundle.zip", st.Name)
	assert.Equal(t, 10, st.Size)
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(st.Key)))

	rc, err := ls.Open(ctx, st.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "PK\x03\x04data", string(data))

	require.NoError(t, ls.Delete(ctx, st.Key))
	_, err = ls.Open(ctx, st.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, ls.Delete(ctx, st.Key), ErrNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "key directory is removed with the archive")

	_, err = ls.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ls.Put(ctx, "a.zip", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

// fakeS3 serves just enough of the S3 REST API for single-part uploads.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", ContentTypeZip)
		_, _ = w.Write(body)
	case http.MethodDelete:
		delete(f.objects, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestS3Storage(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	client := s3.New(s3.Options{
		Region:                     "us-east-1",
		BaseEndpoint:               aws.String(srv.URL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
		ResponseChecksumValidation: aws.ResponseChecksumValidationWhenRequired,
	})
	store := NewS3FromClient(client, "banners", "exports", zaptest.NewLogger(t))
	ctx := context.Background()

	st, err := store.Put(ctx, "Launch_Bundle_2026-03-14.zip", []byte("zipbytes"))
	require.NoError(t, err)
	assert.Equal(t, "Launch_Bundle_2026-03-14.zip", st.Name)

	objPath := "/banners/exports/" + st.Key
	fake.mu.Lock()
	assert.Equal(t, []byte("zipbytes"), fake.objects[objPath])
	assert.Equal(t, ContentTypeZip, fake.types[objPath])
	fake.mu.Unlock()

	rc, err := store.Open(ctx, st.Key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "zipbytes", string(data))

	require.NoError(t, store.Delete(ctx, st.Key))
	_, err = store.Open(ctx, st.Key)
	assert.ErrorIs(t, err, ErrNotFound)
}
