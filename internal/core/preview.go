package core

import (
	"image"

	"github.com/disintegration/imaging"
)

// Thumbnail returns a display copy of img that fits inside maxW x maxH,
// keeping the aspect ratio. The source image is never modified or returned
// as-is; smaller images are cloned.
func Thumbnail(img image.Image, maxW, maxH int) image.Image {
	if img == nil {
		return nil
	}
	if maxW <= 0 || maxH <= 0 {
		return imaging.Clone(img)
	}
	return imaging.Fit(img, maxW, maxH, imaging.Lanczos)
}
