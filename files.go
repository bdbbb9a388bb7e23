package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for output formats that cannot hold
// ciphertext losslessly.
var ErrUnsupportedFormat = errors.New("unsupported output format")

const dataURLPrefix = "data:image/"

// loadImage reads a .chaos container or any decodable image file (PNG, JPEG,
// GIF, BMP, TIFF, WebP, or a base64 data URL holding one of those).
func loadImage(path string) ([]uint32, int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, err
	}

	if strings.EqualFold(filepath.Ext(path), "."+formatChaos) || bytes.HasPrefix(data, []byte(magicContainer)) {
		return ReadContainer(bytes.NewReader(data))
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(dataURLPrefix)) {
		if data, err = decodeDataURL(string(data)); err != nil {
			return nil, 0, 0, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode %s: %w", path, err)
	}
	pixels, w, h := PixelsFromImage(img)
	return pixels, w, h, nil
}

// decodeDataURL strips a "data:image/<type>;base64," prefix and decodes the rest.
func decodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	_, payload, ok := strings.Cut(s, ";base64,")
	if !ok {
		return nil, errors.New("data URL is not base64 encoded")
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL: %w", err)
	}
	return b, nil
}

// outputFormat picks the format from the file extension, falling back to def
// when the path has none.
func outputFormat(path, def string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "":
		return def, nil
	case formatPNG, formatChaos:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q (use .png or .chaos)", ErrUnsupportedFormat, ext)
	}
}

// saveImage writes pixels as a PNG or a .chaos container.
func saveImage(path string, pixels []uint32, w, h int, format string, level zstd.EncoderLevel) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	switch format {
	case formatChaos:
		return WriteContainer(out, pixels, w, h, level)
	case formatPNG:
		img, err := ImageFromPixels(pixels, w, h)
		if err != nil {
			return err
		}
		return png.Encode(out, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
