package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedImage(t *testing.T, w, h int, format imaging.Format) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 30, G: 64, B: 175, A: 255})
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(encodedImage(t, w, h, imaging.PNG))
}

func TestFitLogo(t *testing.T) {
	tests := []struct {
		name           string
		w, h           int
		widthMM, maxMM float64
		wantW, wantH   float64
	}{
		{"wide logo keeps width", 400, 200, 35, 25, 35, 17.5},
		{"tall logo capped by height", 100, 200, 35, 25, 12.5, 25},
		{"no height cap", 100, 200, 35, 0, 35, 70},
		{"empty image", 0, 10, 35, 25, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := FitLogo(tt.w, tt.h, tt.widthMM, tt.maxMM)
			assert.InDelta(t, tt.wantW, w, 1e-9)
			assert.InDelta(t, tt.wantH, h, 1e-9)
		})
	}
}

func TestLogoLoader_DataURL(t *testing.T) {
	l := NewLogoLoader(35, 25, time.Second)

	logo, err := l.Load(context.Background(), pngDataURL(t, 1200, 300))
	require.NoError(t, err)
	require.NotNil(t, logo)

	// Downscaled to the pixel cap, aspect kept.
	assert.Equal(t, 800, logo.WidthPx)
	assert.Equal(t, 200, logo.HeightPx)
	assert.InDelta(t, 35, logo.WidthMM, 1e-9)
	assert.InDelta(t, 8.75, logo.HeightMM, 1e-9)
	assert.True(t, bytes.HasPrefix(logo.PNG, []byte("\x89PNG")))
	assert.Contains(t, logo.DataURL(), "data:image/png;base64,")
}

func TestLogoLoader_FileIsConvertedToPNG(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.jpg"), encodedImage(t, 120, 60, imaging.JPEG), 0o600))

	logo, err := NewLogoLoader(35, 25, time.Second).WithDir(dir).Load(context.Background(), "logo.jpg")
	require.NoError(t, err)
	assert.Equal(t, 120, logo.WidthPx)
	assert.True(t, bytes.HasPrefix(logo.PNG, []byte("\x89PNG")))
}

func TestLogoLoader_FilesStayInLogoDir(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "logos")
	require.NoError(t, os.Mkdir(dir, 0o700))
	outside := filepath.Join(base, "secret.png")
	require.NoError(t, os.WriteFile(outside, encodedImage(t, 10, 10, imaging.PNG), 0o600))

	ctx := context.Background()
	l := NewLogoLoader(35, 25, time.Second).WithDir(dir)
	for _, ref := range []string{outside, "../secret.png", "sub/../../secret.png"} {
		_, err := l.Load(ctx, ref)
		assert.ErrorIs(t, err, errLogoPath, ref)
	}

	_, err := NewLogoLoader(35, 25, time.Second).Load(ctx, outside)
	assert.ErrorIs(t, err, errLogoPath, "no logo directory configured")
}

func TestLogoLoader_Errors(t *testing.T) {
	l := NewLogoLoader(35, 25, time.Second)
	ctx := context.Background()

	logo, err := l.Load(ctx, "   ")
	assert.NoError(t, err)
	assert.Nil(t, logo)

	_, err = l.Load(ctx, "data:text/plain;base64,"+base64.StdEncoding.EncodeToString([]byte("bonjour")))
	assert.ErrorIs(t, err, errUnsupportedImage)

	_, err = l.Load(ctx, "data:text/plain,bonjour%20tout")
	assert.ErrorIs(t, err, errUnsupportedImage)

	_, err = l.Load(ctx, "data:image/png;base64")
	assert.Error(t, err)

	_, err = l.Load(ctx, "data:image/png;base64,%%%")
	assert.Error(t, err)

	_, err = l.WithDir(t.TempDir()).Load(ctx, "missing.png")
	assert.Error(t, err)
}

func TestLogoLoader_HTTP(t *testing.T) {
	png := encodedImage(t, 50, 50, imaging.PNG)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/logo.png" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		time.Sleep(100 * time.Millisecond)
		w.Write(png)
	}))
	defer srv.Close()

	l := NewLogoLoader(35, 25, 2*time.Second)

	var wg sync.WaitGroup
	results := make([]*Logo, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logo, err := l.Load(context.Background(), srv.URL+"/logo.png")
			assert.NoError(t, err)
			results[i] = logo
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, 50, r.WidthPx)
	}
	assert.Equal(t, int32(1), hits.Load(), "concurrent loads share one fetch")

	_, err := l.Load(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestLogoLoader_CallerDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewLogoLoader(35, 25, 5*time.Second).Load(ctx, srv.URL+"/slow.png")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}
