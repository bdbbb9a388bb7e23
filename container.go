package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/klauspost/compress/zstd"
)

// .chaos container:
//
//	magic "CHS1" | width uint32 BE | height uint32 BE | zstd(pixel words, uint32 BE)
//
// It keeps the dimensions next to the ciphertext so they cannot drift apart.
const (
	magicContainer = "CHS1"
	// refuse headers that would need more than 1 GiB of pixel words
	maxContainerPixels = 1 << 28
)

var (
	ErrInvalidMagic = errors.New("container: invalid magic")
	ErrTruncated    = errors.New("container: truncated payload")
)

// WriteContainer stores pixels in the .chaos container.
func WriteContainer(w io.Writer, pixels []uint32, width, height int, level zstd.EncoderLevel) error {
	if width < 0 || height < 0 || uint64(width) > math.MaxUint32 || uint64(height) > math.MaxUint32 || len(pixels) != width*height {
		return fmt.Errorf("%w: %d pixels for a %dx%d image", ErrInvalidInput, len(pixels), width, height)
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(magicContainer); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(width)); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(height)); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(bw,
		zstd.WithEncoderLevel(level),
		zstd.WithEncoderConcurrency(runtime.NumCPU()),
	)
	if err != nil {
		return fmt.Errorf("zstd encoder: %w", err)
	}
	if _, err := enc.Write(wordsToBytes(pixels)); err != nil {
		enc.Close()
		return fmt.Errorf("zstd encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return bw.Flush()
}

// ReadContainer reads a .chaos container written by WriteContainer.
func ReadContainer(r io.Reader) (pixels []uint32, width, height int, err error) {
	magic := make([]byte, len(magicContainer))
	if _, err = io.ReadFull(r, magic); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	if string(magic) != magicContainer {
		return nil, 0, 0, ErrInvalidMagic
	}

	var w32, h32 uint32
	if err = binary.Read(r, binary.BigEndian, &w32); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: width: %v", ErrTruncated, err)
	}
	if err = binary.Read(r, binary.BigEndian, &h32); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: height: %v", ErrTruncated, err)
	}
	width, height = int(w32), int(h32)

	n := uint64(w32) * uint64(h32)
	if (w32 == 0) != (h32 == 0) || n > maxContainerPixels {
		return nil, 0, 0, fmt.Errorf("%w: bad dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if n == 0 {
		return []uint32{}, width, height, nil
	}

	dec, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	// Read at most one byte past the declared size so a lying header costs
	// only what the payload actually decompresses to.
	want := int64(n * 4)
	raw, err := io.ReadAll(io.LimitReader(dec, want+1))
	got := int64(len(raw))
	switch {
	case got > want:
		return nil, 0, 0, fmt.Errorf("%w: payload longer than %dx%d", ErrInvalidInput, width, height)
	case err != nil && got == want:
		// the frame was complete; whatever follows it is not a zstd frame
		return nil, 0, 0, fmt.Errorf("%w: trailing data after %dx%d payload: %v", ErrInvalidInput, width, height, err)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, 0, 0, fmt.Errorf("%w: want %d pixels", ErrTruncated, n)
	case err != nil:
		return nil, 0, 0, fmt.Errorf("%w: zstd decode: %v", ErrInvalidInput, err)
	case got < want:
		return nil, 0, 0, fmt.Errorf("%w: want %d pixels, got %d bytes", ErrTruncated, n, got)
	}

	return bytesToWords(raw), width, height, nil
}

// parseZstdLevel maps a config name (fastest, default, better, best) to a level.
func parseZstdLevel(name string) (zstd.EncoderLevel, error) {
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return zstd.SpeedDefault, fmt.Errorf("unknown zstd level %q", name)
	}
	return level, nil
}

func wordsToBytes(words []uint32) []byte {
	b := make([]byte, len(words)*4)
	for i, v := range words {
		binary.BigEndian.PutUint32(b[i*4:], v)
	}
	return b
}

func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return words
}
