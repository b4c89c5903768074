// Core image data structure with thread-safe operations
package core

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
)

var ErrNoProcessedImage = errors.New("there is no processed image to save")

// maxDimension guards against decoding absurd images into memory
const maxDimension = 16384

// ImageData holds the current single-file session: the selected input, its
// decoded original and, once processing succeeded, the background-free result.
type ImageData struct {
	mu        sync.RWMutex
	original  image.Image
	processed image.Image
	pngData   []byte
	filepath  string
	metadata  ImageMetadata
}

// ImageMetadata contains image information
type ImageMetadata struct {
	Width  int
	Height int
	Format string
	Size   int64
}

func NewImageData() *ImageData {
	return &ImageData{}
}

// SetOriginal replaces the session with a new selection. Any previous
// processed result is dropped.
func (img *ImageData) SetOriginal(original image.Image, path string, size int64) error {
	if err := ValidateImage(original); err != nil {
		return err
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	img.original = original
	img.processed = nil
	img.pngData = nil
	img.filepath = path
	img.metadata = ImageMetadata{
		Width:  original.Bounds().Dx(),
		Height: original.Bounds().Dy(),
		Format: getFormatFromPath(path),
		Size:   size,
	}
	return nil
}

// SetProcessed stores the result for the given input path. A result for a
// path that is no longer selected is rejected.
func (img *ImageData) SetProcessed(path string, processed image.Image, pngData []byte) error {
	if err := ValidateImage(processed); err != nil {
		return fmt.Errorf("invalid processed image: %w", err)
	}

	img.mu.Lock()
	defer img.mu.Unlock()

	if img.original == nil {
		return fmt.Errorf("no original image loaded")
	}
	if path != img.filepath {
		return fmt.Errorf("stale result for %s", filepath.Base(path))
	}

	img.processed = processed
	img.pngData = pngData
	return nil
}

// ClearProcessed forgets the processed result, keeping the original
func (img *ImageData) ClearProcessed() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.processed = nil
	img.pngData = nil
}

// GetOriginal returns a copy of the original image
func (img *ImageData) GetOriginal() image.Image {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if img.original == nil {
		return nil
	}
	return imaging.Clone(img.original)
}

// GetProcessed returns a copy of the processed image, or nil
func (img *ImageData) GetProcessed() image.Image {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if img.processed == nil {
		return nil
	}
	return imaging.Clone(img.processed)
}

// ProcessedPNG returns the encoded result as produced by the remover
func (img *ImageData) ProcessedPNG() []byte {
	img.mu.RLock()
	defer img.mu.RUnlock()

	if img.pngData == nil {
		return nil
	}
	out := make([]byte, len(img.pngData))
	copy(out, img.pngData)
	return out
}

func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.original != nil
}

func (img *ImageData) HasProcessed() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.processed != nil
}

func (img *ImageData) GetMetadata() ImageMetadata {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.metadata
}

func (img *ImageData) GetFilepath() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.filepath
}

// Clear clears all image data
func (img *ImageData) Clear() {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.original = nil
	img.processed = nil
	img.pngData = nil
	img.filepath = ""
	img.metadata = ImageMetadata{}
}

func getFormatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}

// ValidateImage checks an image for basic requirements
func ValidateImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("image is empty")
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("invalid dimensions: %dx%d", b.Dx(), b.Dy())
	}

	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", b.Dx(), b.Dy(), maxDimension)
	}

	return nil
}
