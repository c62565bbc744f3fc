package covers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type memoryCache struct {
	mu     sync.Mutex
	hashes map[string]string
}

func (m *memoryCache) GetCoverHash(_ context.Context, url string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[url]
	return h, ok, nil
}

func (m *memoryCache) SetCoverHash(_ context.Context, url, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashes[url] = hash
	return nil
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(bytes.NewReader(testPNG(t, 128, 192)))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	_, err = ComputeBlurHash(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestResizeForBlurHash(t *testing.T) {
	tall := image.NewRGBA(image.Rect(0, 0, 300, 900))
	got := resizeForBlurHash(tall).Bounds()
	assert.Equal(t, 64, got.Dy())
	assert.Equal(t, 21, got.Dx())

	small := image.NewRGBA(image.Rect(0, 0, 10, 10))
	assert.Same(t, small, resizeForBlurHash(small))
}

func TestService_BlurHashCaches(t *testing.T) {
	body := testPNG(t, 80, 120)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	cache := &memoryCache{hashes: map[string]string{}}
	svc := NewService(srv.Client(), cache, nil)

	first, err := svc.BlurHash(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)
	second, err := svc.BlurHash(context.Background(), srv.URL+"/cover.png")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestService_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	svc := NewService(srv.Client(), nil, nil)

	_, err := svc.BlurHash(context.Background(), "ftp://example.com/a.png")
	assert.ErrorIs(t, err, ErrUnsupportedURL)

	_, err = svc.BlurHash(context.Background(), srv.URL+"/missing.png")
	assert.ErrorContains(t, err, "status 404")
}
