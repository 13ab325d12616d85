package srcmodel

import (
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"
)

// LoadIntensityImage loads the sky-intensity image of an extended source from
// an 8-bit grayscale PNG and returns it as a row-major matrix normalized to
// unit sum, ready for use as a sampling weight map.
//
// The image must be square and in GRAY format, matching the convention used
// for exported observation maps.
func LoadIntensityImage(filename string) (matrix [][]float64, err error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != bounds.Dy() {
		return nil, fmt.Errorf("sky image %s is not square (%dx%d)", filename, bounds.Dx(), bounds.Dy())
	}
	if img.ColorModel() != color.GrayModel {
		return nil, fmt.Errorf("sky image %s is not 8-bit grayscale", filename)
	}

	n := bounds.Dx()
	total := 0.0
	matrix = make([][]float64, n)
	for y := 0; y < n; y++ {
		matrix[y] = make([]float64, n)
		for x := 0; x < n; x++ {
			gray := img.At(x+bounds.Min.X, y+bounds.Min.Y).(color.Gray)
			matrix[y][x] = float64(gray.Y)
			total += matrix[y][x]
		}
	}
	if total == 0 {
		return nil, errors.New("sky image is entirely dark: cannot normalize")
	}
	for y := range matrix {
		for x := range matrix[y] {
			matrix[y][x] /= total
		}
	}
	return matrix, nil
}
