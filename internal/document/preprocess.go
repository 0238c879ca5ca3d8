package document

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// Enhancement factors tuned for low-contrast circular scans.
const (
	contrastFactor   = 2.0
	brightnessFactor = 1.1
)

// sharpenKernel is a standard 3x3 sharpening convolution.
var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// PreprocessImage reads a rendered page, enhances it for OCR (contrast,
// brightness, sharpen, optional upscale) and writes the result next to the
// input with a ".pre.png" suffix.
func PreprocessImage(path string, upscale int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	src, err := png.Decode(f)
	_ = f.Close()
	if err != nil {
		return "", fmt.Errorf("decode page image: %w", err)
	}

	rgba := toRGBA(src)
	if upscale > 1 {
		rgba = scale(rgba, upscale)
	}
	adjustContrastBrightness(rgba, contrastFactor, brightnessFactor)
	rgba = convolve(rgba, sharpenKernel)

	out := path + ".pre.png"
	of, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := png.Encode(of, rgba); err != nil {
		_ = of.Close()
		return "", fmt.Errorf("encode page image: %w", err)
	}
	if err := of.Close(); err != nil {
		return "", err
	}
	return out, nil
}

func toRGBA(src image.Image) *image.RGBA {
	if r, ok := src.(*image.RGBA); ok {
		return r
	}
	b := src.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}

func scale(src *image.RGBA, factor int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// adjustContrastBrightness applies the same factors PIL's ImageEnhance uses:
// contrast pivots around mid gray, brightness multiplies channels.
func adjustContrastBrightness(img *image.RGBA, contrast, brightness float64) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			c.R = clamp((float64(c.R)-128)*contrast + 128)
			c.G = clamp((float64(c.G)-128)*contrast + 128)
			c.B = clamp((float64(c.B)-128)*contrast + 128)
			c.R = clamp(float64(c.R) * brightness)
			c.G = clamp(float64(c.G) * brightness)
			c.B = clamp(float64(c.B) * brightness)
			img.SetRGBA(x, y, c)
		}
	}
}

func convolve(src *image.RGBA, k [9]float64) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl float64
			i := 0
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					px, py := clampInt(x+kx, b.Min.X, b.Max.X-1), clampInt(y+ky, b.Min.Y, b.Max.Y-1)
					c := src.RGBAAt(px, py)
					r += float64(c.R) * k[i]
					g += float64(c.G) * k[i]
					bl += float64(c.B) * k[i]
					i++
				}
			}
			dst.SetRGBA(x, y, color.RGBA{R: clamp(r), G: clamp(g), B: clamp(bl), A: src.RGBAAt(x, y).A})
		}
	}
	return dst
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
