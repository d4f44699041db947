// Package encoder turns uploaded image files into the data URIs stored in frames
// and the asset library.
package encoder

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// Defaults keep a 300x250 banner sharp on high-density screens while leaving room
// for several images under the upload ceiling.
const (
	DefaultMaxDimension = 600
	DefaultQuality      = 0.6
)

var (
	// ErrUnsupported is returned for uploads that are not a decodable image.
	ErrUnsupported = errors.New("unsupported image type")
	// ErrEmpty is returned for zero-length uploads.
	ErrEmpty = errors.New("empty upload")
)

// Options control one encode. Zero values select the defaults.
type Options struct {
	MaxDimension int
	Quality      float64 // 0..1
}

func (o Options) withDefaults() Options {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	return o
}

// Encoder converts raw upload bytes into an encoded image.
type Encoder interface {
	Encode(ctx context.Context, data []byte, opts Options) (string, error)
}

// ImageEncoder downsizes images so the longer side fits MaxDimension and re-encodes
// them. PNG input stays PNG so transparency survives; everything else becomes JPEG.
type ImageEncoder struct {
	Logger *zap.Logger
}

// NewImageEncoder returns an ImageEncoder.
func NewImageEncoder(logger *zap.Logger) *ImageEncoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageEncoder{Logger: logger}
}

// Encode implements Encoder.
func (e *ImageEncoder) Encode(ctx context.Context, data []byte, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	opts = opts.withDefaults()

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	b := img.Bounds()
	if b.Dx() > opts.MaxDimension || b.Dy() > opts.MaxDimension {
		img = imaging.Fit(img, opts.MaxDimension, opts.MaxDimension, imaging.Lanczos)
	}

	format, media := imaging.JPEG, "image/jpeg"
	if mt.Is("image/png") {
		format, media = imaging.PNG, "image/png"
	}

	var buf bytes.Buffer
	encodeOpts := []imaging.EncodeOption{imaging.JPEGQuality(int(math.Round(opts.Quality * 100)))}
	if format == imaging.PNG {
		encodeOpts = []imaging.EncodeOption{imaging.PNGCompressionLevel(png.BestCompression)}
	}
	if err := imaging.Encode(&buf, img, format, encodeOpts...); err != nil {
		return "", fmt.Errorf("encode %s: %w", media, err)
	}

	out := "data:" + media + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	e.Logger.Debug("encoded image",
		zap.String("input_type", mt.String()),
		zap.String("output_type", media),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_bytes", buf.Len()),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
	)
	return out, nil
}

// EncodedSizeKB estimates the decoded size of a base64 data URI in kilobytes.
// It is the estimate shown next to library items, not an exact byte count.
func EncodedSizeKB(dataURI string) float64 {
	if dataURI == "" {
		return 0
	}
	n := len(dataURI) - len("data:image/png;base64,")
	if n < 0 {
		n = 0
	}
	size := 4 * math.Ceil(float64(n)/3) * 0.5624896334383812
	return size / 1024
}
