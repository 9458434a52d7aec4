package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

// fakeS3 answers HeadBucket and CreateBucket for path-style requests.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	creates int
}

func newFakeS3(t *testing.T, buckets ...string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{buckets: map[string]bool{}}
	for _, b := range buckets {
		f.buckets[b] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bucket := strings.Trim(r.URL.Path, "/")
	switch r.Method {
	case http.MethodHead:
		if f.buckets[bucket] {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodPut:
		f.creates++
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testProps(endpoint, bucket string, create bool) manager.Props {
	return manager.Props{
		"bucket":            bucket,
		"endpoint":          endpoint,
		"access_key_id":     "test",
		"secret_access_key": "test",
		"create_bucket":     create,
	}
}

func TestEnsureExistingBucket(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeS3(t, "assets")

	conn, err := Connect(ctx, testProps(srv.URL, "assets", false))
	require.NoError(t, err)
	require.NoError(t, Ensure(ctx, testProps(srv.URL, "assets", false), conn))
	assert.Equal(t, 0, f.creates)
}

func TestEnsureMissingBucket(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakeS3(t)

	conn, err := Connect(ctx, testProps(srv.URL, "assets", false))
	require.NoError(t, err)
	assert.ErrorContains(t, Ensure(ctx, testProps(srv.URL, "assets", false), conn), "does not exist")
}

func TestEnsureCreatesBucketThroughManager(t *testing.T) {
	ctx := context.Background()
	f, srv := newFakeS3(t)

	catalog := manager.NewCatalog()
	require.NoError(t, Register(catalog))

	store := registry.NewConnectionStore()
	m, err := manager.New(store, []manager.Declaration{{
		StoreName:      registry.StoreS3,
		ConnectionName: "assets",
		ShouldEnsure:   true,
		Props:          testProps(srv.URL, "assets", true),
	}}, manager.WithCatalog(catalog))
	require.NoError(t, err)

	require.NoError(t, m.Init(ctx, nil).Err())
	assert.Equal(t, 1, f.creates)

	c, ok := manager.Client[*Client](m, registry.StoreS3, "assets")
	require.True(t, ok)
	assert.Equal(t, "assets", c.Bucket)
	assert.Equal(t, "us-east-1", c.Region)

	require.NoError(t, m.Disconnect(ctx).Err())
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Bucket: "b", Endpoint: "http://localhost:9000"}
	cfg.ApplyDefaults()
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.True(t, cfg.ForcePathStyle)
}

func TestConfigValidation(t *testing.T) {
	_, err := Connect(context.Background(), manager.Props{})
	assert.ErrorContains(t, err, "bucket")

	_, err = Connect(context.Background(), manager.Props{"bucket": "b", "access_key_id": "x"})
	assert.ErrorContains(t, err, "secret_access_key")
}

func TestWrongHandle(t *testing.T) {
	assert.Error(t, Ensure(context.Background(), manager.Props{"bucket": "b"}, "nope"))
	assert.NoError(t, Disconnect(context.Background(), nil, nil))
}
