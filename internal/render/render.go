// Package render turns raster bands into map layer images.
package render

import (
	"image"

	"github.com/couchcryptid/heat-index-etl/internal/domain"
)

// Layer renders the named band of r through the palette, one pixel per grid
// cell with north at the top. Masked (NaN) cells come out fully transparent.
func Layer(r domain.Raster, band string, p Palette) (*image.NRGBA, error) {
	b, err := r.Band(band)
	if err != nil {
		return nil, err
	}
	img := image.NewNRGBA(image.Rect(0, 0, r.Grid.Width, r.Grid.Height))
	for row := 0; row < r.Grid.Height; row++ {
		// Samples run south to north; image rows run top to bottom.
		y := r.Grid.Height - 1 - row
		for col := 0; col < r.Grid.Width; col++ {
			img.SetNRGBA(col, y, p.At(b.Samples[row*r.Grid.Width+col]))
		}
	}
	return img, nil
}

// EmptyLayer returns a fully transparent image, used for dates with no
// stored raster so the dashboard shows a blank map instead of an error.
func EmptyLayer(width, height int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}
