// Package images loads pictures referenced from markdown and prepares them
// for embedding: only PNG and JPEG are stored, everything else is converted.
package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"onemd/config"
	"onemd/jpegquality"
)

var (
	ErrTooLarge       = errors.New("image exceeds size limit")
	ErrRemoteDisabled = errors.New("remote images are disabled")
	ErrNotImage       = errors.New("data is not a supported image")
)

// Image is ready to embed picture.
type Image struct {
	Data   []byte
	Format string // "png" or "jpg"
	Width  int    // pixels
	Height int
}

// Base64 returns data encoded for host binary element.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// Loader fetches images from local files (relative to base directory),
// http(s) URLs and data URIs.
type Loader struct {
	cfg     *config.ImagesConfig
	baseDir string
	client  *http.Client
	log     *zap.Logger
}

func NewLoader(cfg *config.ImagesConfig, baseDir string, log *zap.Logger) *Loader {
	return &Loader{
		cfg:     cfg,
		baseDir: baseDir,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     log.Named("images"),
	}
}

// Load reads image from src and normalizes it.
func (l *Loader) Load(ctx context.Context, src string) (*Image, error) {
	data, err := l.read(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := l.Prepare(data)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare image %q: %w", src, err)
	}
	return img, nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		return l.readDataURI(src)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.readRemote(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("bad file url %q: %w", src, err)
		}
		return l.readLocal(u.Path)
	default:
		if path, err := url.PathUnescape(src); err == nil {
			src = path
		}
		return l.readLocal(src)
	}
}

func (l *Loader) readLocal(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, filepath.FromSlash(path))
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to access image: %w", err)
	}
	if fi.Size() > l.cfg.MaxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrTooLarge, path, fi.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read image: %w", err)
	}
	return data, nil
}

func (l *Loader) readRemote(ctx context.Context, src string) ([]byte, error) {
	if !l.cfg.AllowRemote {
		return nil, ErrRemoteDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unable to download image: %s", resp.Status)
	}
	if resp.ContentLength > l.cfg.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes announced", ErrTooLarge, resp.ContentLength)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to download image: %w", err)
	}
	if int64(len(data)) > l.cfg.MaxSize {
		return nil, ErrTooLarge
	}
	l.log.Debug("Image downloaded", zap.String("url", src), zap.Int("size", len(data)))
	return data, nil
}

func (l *Loader) readDataURI(src string) ([]byte, error) {
	header, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	var data []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed base64 in data URI: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("malformed data URI: %w", err)
		}
		data = []byte(unescaped)
	}
	if int64(len(data)) > l.cfg.MaxSize {
		return nil, ErrTooLarge
	}
	return data, nil
}

// Prepare keeps PNG and JPEG data intact when no changes are needed, other
// formats are converted to PNG. Images wider than configured maximum are
// scaled down, JPEGs with quality above configured level are re-encoded.
func (l *Loader) Prepare(data []byte) (*Image, error) {
	if IsSVG(data) {
		img, err := RasterizeSVGToImage(data, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return encodeImage(l.scale(img), "png", l.cfg.JPEGQuality)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return nil, ErrNotImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s image: %w", kind.Extension, err)
	}

	resize := l.cfg.MaxWidth > 0 && cfg.Width > l.cfg.MaxWidth
	switch format {
	case "png":
		if !resize {
			return &Image{Data: data, Format: "png", Width: cfg.Width, Height: cfg.Height}, nil
		}
	case "jpeg":
		if !resize && !l.tooGood(data) {
			return &Image{Data: data, Format: "jpg", Width: cfg.Width, Height: cfg.Height}, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s image: %w", format, err)
	}
	target := "png"
	if format == "jpeg" {
		target = "jpg"
	}
	l.log.Debug("Re-encoding image", zap.String("from", format), zap.String("to", target), zap.Bool("resize", resize))
	return encodeImage(l.scale(img), target, l.cfg.JPEGQuality)
}

func (l *Loader) tooGood(data []byte) bool {
	qr, err := jpegquality.NewWithBytes(data)
	if err != nil {
		l.log.Debug("Unable to detect JPEG quality level", zap.Error(err))
		return false
	}
	return qr.Quality() > l.cfg.JPEGQuality
}

func (l *Loader) scale(img image.Image) image.Image {
	if l.cfg.MaxWidth <= 0 || img.Bounds().Dx() <= l.cfg.MaxWidth {
		return img
	}
	return imaging.Resize(img, l.cfg.MaxWidth, 0, imaging.Lanczos)
}

func encodeImage(img image.Image, format string, quality int) (*Image, error) {
	out := &Image{Format: format, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	switch format {
	case "jpg":
		data, err := EncodeJPEG(img, quality)
		if err != nil {
			return nil, fmt.Errorf("unable to encode JPEG: %w", err)
		}
		out.Data = data
	default:
		if IsGrayscale(img) {
			img = toGray(img)
		}
		buf := new(bytes.Buffer)
		if err := imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("unable to encode PNG: %w", err)
		}
		out.Data = buf.Bytes()
	}
	return out, nil
}
