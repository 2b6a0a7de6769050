// Package imaging prepares user supplied images for upload: validation,
// downscaling with re-encoding, and pixel-rect cropping.
package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxWidth  = 1920
	DefaultQuality   = 0.8
	DefaultThreshold = 1024 * 1024

	TypePNG  = "image/png"
	TypeJPEG = "image/jpeg"
)

var (
	ErrDecode = errors.New("imaging: cannot decode image")
	ErrEncode = errors.New("imaging: encoding produced no data")
)

// File is an in-memory image blob with its metadata.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	ModTime     time.Time
}

// Size returns the blob length in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// CompressOptions tunes Compress. Zero values select the defaults.
type CompressOptions struct {
	MaxWidth  int
	Quality   float64 // 0..1, JPEG only
	Threshold int     // files smaller than this are returned untouched
}

func (o CompressOptions) withDefaults() CompressOptions {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = DefaultQuality
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	return o
}

// Compress downsizes and re-encodes in. Files below the threshold are returned
// as the same pointer. PNG input stays PNG; every other type becomes JPEG.
func Compress(in *File, opts CompressOptions) (*File, error) {
	if in == nil {
		return nil, ErrDecode
	}
	opts = opts.withDefaults()
	if len(in.Data) < opts.Threshold {
		return in, nil
	}

	src, _, err := image.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	src = fitWidth(src, opts.MaxWidth)

	outType := TypeJPEG
	if ContentTypeOf(in) == TypePNG {
		outType = TypePNG
	}
	data, err := encode(src, outType, opts.Quality)
	if err != nil {
		return nil, err
	}

	return &File{
		Name:        in.Name,
		ContentType: outType,
		Data:        data,
		ModTime:     time.Now(),
	}, nil
}

// ContentTypeOf returns the declared type of f, sniffing the bytes when absent.
func ContentTypeOf(f *File) string {
	if ct := normalizeType(f.ContentType); ct != "" {
		return ct
	}
	return normalizeType(http.DetectContentType(f.Data))
}

// Dimensions reads the pixel size from the image header without decoding pixels.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Join(ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}

func fitWidth(src image.Image, maxWidth int) image.Image {
	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= maxWidth {
		return src
	}
	height = int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if height < 1 {
		height = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encode(img image.Image, contentType string, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	switch contentType {
	case TypePNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, errors.Join(ErrEncode, err)
		}
	default:
		q := int(math.Round(quality * 100))
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: q}); err != nil {
			return nil, errors.Join(ErrEncode, err)
		}
	}
	if buf.Len() == 0 {
		return nil, ErrEncode
	}
	return buf.Bytes(), nil
}

// flatten composites translucent images over white so JPEG output does not
// turn transparent areas black.
func flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}

func normalizeType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		ct = TypeJPEG
	}
	return ct
}
