package conversion

import (
	"fmt"
	"image"
	"image/color"

	"pupiltrack/internal/opencv/safe"
)

// MatToImage converts a GoCV Mat to a standard Go image, dispatching on
// channel count so a thumbnail crop can be handed straight to image/png.
func MatToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	channels := src.Channels()

	switch channels {
	case 1:
		return matToGray(src, rows, cols)
	case 3:
		return matToBGRToRGBA(src, rows, cols)
	case 4:
		return matToBGRAToRGBA(src, rows, cols)
	default:
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
}

// matToGray converts a single-channel Mat to a grayscale image.
func matToGray(src *safe.Mat, rows, cols int) (*image.Gray, error) {
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			value, err := src.GetUCharAt(y, x)
			if err != nil {
				return nil, fmt.Errorf("pixel access failed at (%d,%d): %w", x, y, err)
			}
			img.SetGray(x, y, color.Gray{Y: value})
		}
	}

	return img, nil
}

// matToBGRToRGBA converts a BGR Mat to an RGBA image.
func matToBGRToRGBA(src *safe.Mat, rows, cols int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b, err := src.GetUCharAt3(y, x, 0)
			if err != nil {
				return nil, fmt.Errorf("B channel access failed at (%d,%d): %w", x, y, err)
			}

			g, err := src.GetUCharAt3(y, x, 1)
			if err != nil {
				return nil, fmt.Errorf("G channel access failed at (%d,%d): %w", x, y, err)
			}

			r, err := src.GetUCharAt3(y, x, 2)
			if err != nil {
				return nil, fmt.Errorf("R channel access failed at (%d,%d): %w", x, y, err)
			}

			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}

	return img, nil
}

// matToBGRAToRGBA converts a BGRA Mat to an RGBA image.
func matToBGRAToRGBA(src *safe.Mat, rows, cols int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b, err := src.GetUCharAt3(y, x, 0)
			if err != nil {
				return nil, fmt.Errorf("B channel access failed at (%d,%d): %w", x, y, err)
			}

			g, err := src.GetUCharAt3(y, x, 1)
			if err != nil {
				return nil, fmt.Errorf("G channel access failed at (%d,%d): %w", x, y, err)
			}

			r, err := src.GetUCharAt3(y, x, 2)
			if err != nil {
				return nil, fmt.Errorf("R channel access failed at (%d,%d): %w", x, y, err)
			}

			a, err := src.GetUCharAt3(y, x, 3)
			if err != nil {
				return nil, fmt.Errorf("A channel access failed at (%d,%d): %w", x, y, err)
			}

			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: b, A: a})
		}
	}

	return img, nil
}
