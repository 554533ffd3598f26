package biometrics

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	// registered decoders for the camera-capture formats
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// frame holds the canonical 512x512 pixel grid with per-channel float values
// in [0,255] and the BT.709 grayscale plane used by every edge, texture and
// gradient computation.
type frame struct {
	r, g, b []float64
	gray    []float64
}

func (f *frame) at(x, y int) float64 {
	return f.gray[y*CanonicalSize+x]
}

// decodeFrame decodes the input bytes and letterboxes the result into the
// canonical resolution, preserving aspect ratio and padding with black.
// Catmull-Rom resampling is pure Go and deterministic, which keeps the
// device/resolution variance out of the fingerprint.
func decodeFrame(data []byte) (*frame, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty bounds", ErrImageDecode)
	}
	if cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds the pixel budget",
			ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	bounds := src.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty bounds", ErrImageDecode)
	}

	dst := image.NewRGBA(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	// fit the source inside the canonical square
	sw, sh := bounds.Dx(), bounds.Dy()
	var tw, th int
	if sw >= sh {
		tw = CanonicalSize
		th = sh * CanonicalSize / sw
	} else {
		th = CanonicalSize
		tw = sw * CanonicalSize / sh
	}
	if tw == 0 {
		tw = 1
	}
	if th == 0 {
		th = 1
	}
	ox := (CanonicalSize - tw) / 2
	oy := (CanonicalSize - th) / 2
	xdraw.CatmullRom.Scale(dst, image.Rect(ox, oy, ox+tw, oy+th), src, bounds, xdraw.Src, nil)

	n := CanonicalSize * CanonicalSize
	f := &frame{
		r:    make([]float64, n),
		g:    make([]float64, n),
		b:    make([]float64, n),
		gray: make([]float64, n),
	}
	for y := range CanonicalSize {
		for x := range CanonicalSize {
			i := y*CanonicalSize + x
			o := dst.PixOffset(x, y)
			r := float64(dst.Pix[o])
			g := float64(dst.Pix[o+1])
			b := float64(dst.Pix[o+2])
			f.r[i], f.g[i], f.b[i] = r, g, b
			// ITU-R BT.709 luminance
			f.gray[i] = 0.2126*r + 0.7152*g + 0.0722*b
		}
	}
	return f, nil
}
