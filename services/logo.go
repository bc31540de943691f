package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/singleflight"
)

// Logo is a decoded company logo normalised to PNG, with its printed size.
type Logo struct {
	PNG      []byte
	WidthMM  float64
	HeightMM float64
	WidthPx  int
	HeightPx int
}

// DataURL returns the logo as an inline image source for HTML.
func (l *Logo) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(l.PNG)
}

var (
	errUnsupportedImage = errors.New("unsupported image format")
	errLogoTooLarge     = errors.New("logo exceeds size limit")
	errLogoPath         = errors.New("logo file outside the logo directory")
)

const (
	maxLogoBytes  = 5 << 20
	maxLogoPixels = 800
)

var supportedLogoTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff"}

// LogoLoader fetches, decodes and sizes company logos. Concurrent loads of
// the same reference share one fetch.
type LogoLoader struct {
	client      *http.Client
	group       singleflight.Group
	widthMM     float64
	maxHeightMM float64
	timeout     time.Duration
	// dir is the only directory file references are read from; empty
	// disables file references.
	dir string
}

// NewLogoLoader returns a loader printing logos widthMM wide, scaled down to
// fit maxHeightMM. A fetch is abandoned after timeout.
func NewLogoLoader(widthMM, maxHeightMM float64, timeout time.Duration) *LogoLoader {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LogoLoader{
		client:      &http.Client{Timeout: timeout},
		widthMM:     widthMM,
		maxHeightMM: maxHeightMM,
		timeout:     timeout,
	}
}

// WithDir allows file references, resolved inside dir. A reference that
// leaves dir is refused.
func (l *LogoLoader) WithDir(dir string) *LogoLoader {
	l.dir = dir
	return l
}

// Load resolves ref, which may be a data URL, an http(s) URL or a file name
// relative to the logo directory.
// The call returns when the load finishes or ctx is done, whichever is first.
func (l *LogoLoader) Load(ctx context.Context, ref string) (*Logo, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, nil
	}

	ch := l.group.DoChan(ref, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		raw, err := l.fetch(loadCtx, ref)
		if err != nil {
			return nil, err
		}
		return l.decode(raw)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Logo), nil
	}
}

func (l *LogoLoader) fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		return decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, fmt.Errorf("logo request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("logo fetch: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("logo fetch: status %d", resp.StatusCode)
		}
		return readLimited(resp.Body)
	default:
		return l.readFile(ref)
	}
}

// readFile opens name through an os.Root so that absolute paths, ".."
// and symlinks cannot reach outside the logo directory.
func (l *LogoLoader) readFile(name string) ([]byte, error) {
	if l.dir == "" {
		return nil, errLogoPath
	}
	root, err := os.OpenRoot(l.dir)
	if err != nil {
		return nil, fmt.Errorf("logo dir: %w", err)
	}
	defer root.Close()

	f, err := root.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("logo open: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", errLogoPath, err)
	}
	defer f.Close()
	return readLimited(f)
}

func readLimited(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("logo read: %w", err)
	}
	if len(raw) > maxLogoBytes {
		return nil, errLogoTooLarge
	}
	return raw, nil
}

// decodeDataURL handles "data:[<mediatype>][;base64],<data>".
func decodeDataURL(ref string) ([]byte, error) {
	meta, data, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return nil, fmt.Errorf("data URL: %w", err)
		}
		return raw, nil
	}
	s, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("data URL: %w", err)
	}
	return []byte(s), nil
}

func (l *LogoLoader) decode(raw []byte) (*Logo, error) {
	mt := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mt.String(), supportedLogoTypes...) {
		return nil, fmt.Errorf("%w: %s", errUnsupportedImage, mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("logo decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("logo has no pixels")
	}
	if b.Dx() > maxLogoPixels {
		img = imaging.Resize(img, maxLogoPixels, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("logo encode: %w", err)
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	widthMM, heightMM := FitLogo(w, h, l.widthMM, l.maxHeightMM)
	return &Logo{PNG: buf.Bytes(), WidthMM: widthMM, HeightMM: heightMM, WidthPx: w, HeightPx: h}, nil
}

// FitLogo returns the printed size of a w×h pixel image laid out widthMM
// wide. When the height would exceed maxHeightMM both sides are scaled down
// so the aspect ratio holds.
func FitLogo(w, h int, widthMM, maxHeightMM float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	width := widthMM
	height := float64(h) * widthMM / float64(w)
	if maxHeightMM > 0 && height > maxHeightMM {
		width = float64(w) * maxHeightMM / float64(h)
		height = maxHeightMM
	}
	return width, height
}
