package main

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"
)

// PixelsFromImage flattens img into row-major, non-premultiplied ARGB words.
// Bounds are normalised so that pixel (0,0) is the top-left corner.
func PixelsFromImage(img image.Image) ([]uint32, int, int) {
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	pixels := make([]uint32, w*h)

	switch src := img.(type) {
	case *image.NRGBA:
		forEachRowStripe(h, func(y0, y1 int) {
			pixelsFromNRGBAStripe(src, pixels, w, y0, y1)
		})
	case *image.RGBA:
		forEachRowStripe(h, func(y0, y1 int) {
			pixelsFromRGBAStripe(src, pixels, w, y0, y1)
		})
	default:
		forEachRowStripe(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				base := y * w
				for x := 0; x < w; x++ {
					c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
					pixels[base+x] = PackARGB(c.A, c.R, c.G, c.B)
				}
			}
		})
	}

	return pixels, w, h
}

func pixelsFromNRGBAStripe(src *image.NRGBA, pixels []uint32, w, yStart, yEnd int) {
	for y := yStart; y < yEnd; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		base := y * w
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			pixels[base+x] = PackARGB(p[3], p[0], p[1], p[2])
		}
	}
}

func pixelsFromRGBAStripe(src *image.RGBA, pixels []uint32, w, yStart, yEnd int) {
	for y := yStart; y < yEnd; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		base := y * w
		for x := 0; x < w; x++ {
			p := row[x*4 : x*4+4 : x*4+4]
			if p[3] == 0xff {
				pixels[base+x] = PackARGB(p[3], p[0], p[1], p[2])
				continue
			}
			// premultiplied: let the color model undo the alpha scaling
			c := color.NRGBAModel.Convert(color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}).(color.NRGBA)
			pixels[base+x] = PackARGB(c.A, c.R, c.G, c.B)
		}
	}
}

// ImageFromPixels builds an *image.NRGBA from ARGB words. The result is
// lossless with respect to the words, which is what scrambled output needs.
func ImageFromPixels(pixels []uint32, w, h int) (*image.NRGBA, error) {
	if w < 0 || h < 0 || len(pixels) != w*h {
		return nil, fmt.Errorf("%w: %d pixels for a %dx%d image", ErrInvalidInput, len(pixels), w, h)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	forEachRowStripe(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
			base := y * w
			for x := 0; x < w; x++ {
				a, r, g, b := UnpackARGB(pixels[base+x])
				row[x*4+0] = r
				row[x*4+1] = g
				row[x*4+2] = b
				row[x*4+3] = a
			}
		}
	})
	return dst, nil
}

// forEachRowStripe splits [0, h) into one contiguous stripe per CPU and runs
// fn on each stripe in its own goroutine.
func forEachRowStripe(h int, fn func(y0, y1 int)) {
	workers := min(runtime.NumCPU(), h)
	if workers <= 1 {
		fn(0, h)
		return
	}

	rowsPerWorker := (h + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := i * rowsPerWorker
		if y0 >= h {
			break
		}
		y1 := min(y0+rowsPerWorker, h)

		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(y0, y1)
		}()
	}
	wg.Wait()
}
