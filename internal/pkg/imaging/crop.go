package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"strings"

	"golang.org/x/image/draw"
)

var (
	ErrInvalidRect    = errors.New("imaging: crop area must have positive width and height")
	ErrInvalidDataURL = errors.New("imaging: malformed data URL")
)

const cropJPEGQuality = 0.92

// Rect is a crop area in source pixels, as reported by the interactive crop tool.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Crop cuts rect out of src. The output is sized to the rect; areas outside
// the source stay transparent (black once encoded as JPEG). PNG input yields
// PNG, anything else JPEG.
func Crop(src []byte, rect Rect) ([]byte, string, error) {
	if rect.Empty() {
		return nil, "", ErrInvalidRect
	}
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", errors.Join(ErrDecode, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	origin := img.Bounds().Min.Add(image.Pt(rect.X, rect.Y))
	draw.Draw(dst, dst.Bounds(), img, origin, draw.Src)

	outType := TypeJPEG
	if format == "png" {
		outType = TypePNG
	}
	data, err := encodeCrop(dst, outType)
	if err != nil {
		return nil, "", err
	}
	return data, outType, nil
}

func encodeCrop(img image.Image, contentType string) ([]byte, error) {
	if contentType == TypePNG {
		return encode(img, TypePNG, 0)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(cropJPEGQuality * 100)}); err != nil {
		return nil, errors.Join(ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, ErrEncode
	}
	return buf.Bytes(), nil
}

// CropDataURL is Crop for base64 data URLs, returning a data URL of the result.
func CropDataURL(dataURL string, rect Rect) (string, error) {
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	out, contentType, err := Crop(data, rect)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(contentType, out), nil
}

// DecodeDataURL extracts the payload of a base64 "data:" URL.
func DecodeDataURL(dataURL string) ([]byte, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Join(ErrInvalidDataURL, err)
	}
	return data, nil
}

func EncodeDataURL(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
