package quotation

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes a data URL or bare base64 payload into a raster image. Any failure resolves
// to nil so a malformed logo or signature never blocks document production.
func DecodeImage(src string) image.Image {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	if strings.HasPrefix(src, "data:") {
		idx := strings.Index(src, ",")
		if idx < 0 || !strings.Contains(src[:idx], ";base64") {
			return nil
		}
		src = src[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(src)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(src, "="))
		if err != nil {
			return nil
		}
	}
	return DecodeImageBytes(raw)
}

// MaxImagePixels caps the pixel area a logo or signature may declare. Larger images are
// rejected from their header before any pixel buffer is allocated.
const MaxImagePixels = 4096 * 4096

// DecodeImageBytes decodes PNG, JPEG, GIF, BMP or WebP bytes. Empty, undecodable or oversized
// input yields nil.
func DecodeImageBytes(raw []byte) image.Image {
	if len(raw) == 0 {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil || img == nil {
		return nil
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil
	}
	return img
}
