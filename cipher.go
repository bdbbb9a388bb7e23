package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidInput is returned when the pixel buffer does not match the dimensions.
var ErrInvalidInput = errors.New("chaos: invalid input")

const (
	// keystream bytes per pixel, one per channel (A, R, G, B)
	channels = 4
	// below this many pixels the substitution runs on the calling goroutine
	parallelThreshold = 1 << 14
	// stripes handed out per worker, so slow stripes do not stall the join
	stripesPerWorker = 4
)

// Cipher runs encrypt/decrypt calls. It holds only execution tuning and no key
// state, so the zero value is ready to use and copies are interchangeable.
type Cipher struct {
	// Workers bounds the goroutines used by the substitution stage.
	// Zero means runtime.NumCPU(); 1 disables fan-out.
	Workers int
}

// Encrypt scrambles pixels with the zero-value Cipher.
func Encrypt(pixels []uint32, width, height int, password string) ([]uint32, error) {
	return Cipher{}.Encrypt(pixels, width, height, password)
}

// Decrypt unscrambles pixels with the zero-value Cipher.
func Decrypt(pixels []uint32, width, height int, password string) ([]uint32, error) {
	return Cipher{}.Decrypt(pixels, width, height, password)
}

func (c Cipher) Encrypt(pixels []uint32, width, height int, password string) ([]uint32, error) {
	return c.EncryptContext(context.Background(), pixels, width, height, password)
}

func (c Cipher) Decrypt(pixels []uint32, width, height int, password string) ([]uint32, error) {
	return c.DecryptContext(context.Background(), pixels, width, height, password)
}

// EncryptContext permutes the pixels (gather) and then XORs every channel
// with the keystream. The input slice is never modified.
// ctx is only checked between substitution stripes.
func (c Cipher) EncryptContext(ctx context.Context, pixels []uint32, width, height int, password string) ([]uint32, error) {
	n, err := checkDimensions(len(pixels), width, height)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveKeys(password)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []uint32{}, nil
	}

	perm := BuildPermutation(LogisticSequence(keys.X0, keys.R, n))
	out := Gather(pixels, perm)

	subst := LogisticSequence(keys.Y0, keys.D, channels*n)
	if err := c.substitute(ctx, out, subst); err != nil {
		return nil, err
	}
	return out, nil
}

// DecryptContext undoes EncryptContext: the keystream is removed first while
// pixels are still in scrambled order, then the permutation is scattered back.
func (c Cipher) DecryptContext(ctx context.Context, pixels []uint32, width, height int, password string) ([]uint32, error) {
	n, err := checkDimensions(len(pixels), width, height)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveKeys(password)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []uint32{}, nil
	}

	subst := LogisticSequence(keys.Y0, keys.D, channels*n)
	unsubstituted := slices.Clone(pixels)
	if err := c.substitute(ctx, unsubstituted, subst); err != nil {
		return nil, err
	}

	perm := BuildPermutation(LogisticSequence(keys.X0, keys.R, n))
	return Scatter(unsubstituted, perm), nil
}

// checkDimensions returns width*height if it matches the buffer length.
func checkDimensions(length, width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if (width == 0) != (height == 0) {
		return 0, fmt.Errorf("%w: degenerate dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if height > 0 && width > math.MaxInt/channels/height {
		return 0, fmt.Errorf("%w: dimensions %dx%d overflow", ErrInvalidInput, width, height)
	}
	if n := width * height; n != length {
		return 0, fmt.Errorf("%w: %d pixels for a %dx%d image (want %d)", ErrInvalidInput, length, width, height, n)
	}
	return length, nil
}

func (c Cipher) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// substitute XORs px in place with the keystream derived from seq, which holds
// four values per pixel. Pixels are independent, so stripes run concurrently.
func (c Cipher) substitute(ctx context.Context, px []uint32, seq []float64) error {
	n := len(px)
	workers := min(c.workers(), n)
	if workers < 1 {
		workers = 1
	}

	stripe := (n + workers*stripesPerWorker - 1) / (workers * stripesPerWorker)
	if stripe < 1 {
		stripe = 1
	}

	if workers == 1 || n < parallelThreshold {
		for start := 0; start < n; start += stripe {
			if err := ctx.Err(); err != nil {
				return err
			}
			xorStripe(px, seq, start, min(start+stripe, n))
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += stripe {
		if gctx.Err() != nil {
			break
		}
		start := start
		end := min(start+stripe, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			xorStripe(px, seq, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// xorStripe quantizes the stripe's slice of seq and XORs it into px[start:end].
func xorStripe(px []uint32, seq []float64, start, end int) {
	ks := Keystream(seq[start*channels : end*channels])
	for i := start; i < end; i++ {
		k := (i - start) * channels
		a, r, g, b := UnpackARGB(px[i])
		px[i] = PackARGB(a^ks[k], r^ks[k+1], g^ks[k+2], b^ks[k+3])
	}
}

// PackARGB packs channels as (A<<24)|(R<<16)|(G<<8)|B.
func PackARGB(a, r, g, b uint8) uint32 {
	return uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// UnpackARGB is the inverse of PackARGB.
func UnpackARGB(p uint32) (a, r, g, b uint8) {
	return uint8(p >> 24), uint8(p >> 16), uint8(p >> 8), uint8(p)
}
