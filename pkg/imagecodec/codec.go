package imagecodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const DataURLPrefix = "data:image/jpeg;base64,"

// DefaultMaxPixels bounds Width*Height before any pixel is allocated.
const DefaultMaxPixels int64 = 50_000_000

var (
	ErrDecode = errors.New("image decode failed")
	ErrEncode = errors.New("image encode failed")
	ErrBase64 = errors.New("invalid base64 image data")
)

// Decode interprets a compressed image (JPEG, PNG, GIF, BMP, TIFF or WebP)
// into a BGR pixel buffer. Alpha is dropped without premultiplication.
func Decode(data []byte) (*PixelImage, error) {
	return DecodeWithLimit(data, DefaultMaxPixels)
}

// DecodeWithLimit is Decode with a caller chosen pixel budget. The header is
// read first so an oversized image fails without being decompressed.
func DecodeWithLimit(data []byte, maxPixels int64) (*PixelImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}

	return FromImage(img, BGR), nil
}

// EncodeJPEG re-encodes the buffer as a JPEG at the default quality.
func EncodeJPEG(p *PixelImage) ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: invalid pixel buffer", ErrEncode)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, p.ToRGBA(), &jpeg.Options{Quality: jpeg.DefaultQuality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return buf.Bytes(), nil
}

// EncodeBase64 returns the buffer as a JPEG data URL.
func EncodeBase64(p *PixelImage) (string, error) {
	data, err := EncodeJPEG(p)
	if err != nil {
		return "", err
	}

	return DataURLPrefix + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL accepts either a bare base64 payload or a data URL and
// returns the raw bytes it carries.
func DecodeDataURL(s string) ([]byte, error) {
	payload := strings.TrimSpace(s)
	if strings.Contains(payload, "data:image") {
		idx := strings.Index(payload, ",")
		if idx == -1 {
			return nil, fmt.Errorf("%w: data URL without payload", ErrBase64)
		}
		payload = payload[idx+1:]
	}

	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrBase64)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}

	return data, nil
}
