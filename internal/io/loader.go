// Image loading and saving functionality
package io

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/webp"
)

// OutputSuffix is appended to the input stem for every written result
const OutputSuffix = "_no_bg"

var ErrUnsupportedFormat = errors.New("unsupported image format")

var supportedExtensions = []string{".png", ".jpg", ".jpeg", ".webp", ".bmp"}

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// ImageLoader handles image file operations
type ImageLoader struct {
	logger *logrus.Logger
}

func NewImageLoader(logger *logrus.Logger) *ImageLoader {
	return &ImageLoader{
		logger: logger,
	}
}

// SupportedExtensions returns the allow-list used for dialogs and folder scans
func SupportedExtensions() []string {
	exts := make([]string, len(supportedExtensions))
	copy(exts, supportedExtensions)
	return exts
}

// IsSupported reports whether the path carries an allow-listed extension
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range supportedExtensions {
		if ext == format {
			return true
		}
	}
	return false
}

// OutputName maps "photo.jpg" to "photo_no_bg.png"
func OutputName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + OutputSuffix + ".png"
}

func (il *ImageLoader) ReadBytes(path string) ([]byte, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// Decode turns encoded bytes into an image, honouring EXIF orientation
func (il *ImageLoader) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot decode empty image data")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", b.Dx(), b.Dy())
	}
	return img, nil
}

func (il *ImageLoader) LoadImage(path string) (image.Image, []byte, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	data, err := il.ReadBytes(path)
	if err != nil {
		return nil, nil, err
	}

	img, err := il.Decode(data)
	if err != nil {
		return nil, nil, err
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    img.Bounds().Dx(),
		"height":   img.Bounds().Dy(),
	}).Info("Image loaded successfully")

	return img, data, nil
}

// SavePNG encodes img as PNG at path
func (il *ImageLoader) SavePNG(path string, img image.Image) error {
	if img == nil || img.Bounds().Empty() {
		return fmt.Errorf("cannot save empty image")
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := imaging.Encode(file, img, imaging.PNG); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode png: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    img.Bounds().Dx(),
		"height":   img.Bounds().Dy(),
	}).Info("Image saved successfully")

	return nil
}

// WritePNG stores remover output at path. PNG data is written verbatim,
// anything else is decoded and re-encoded so the file is always a PNG.
func (il *ImageLoader) WritePNG(path string, data []byte) error {
	if !IsPNG(data) {
		img, err := il.Decode(data)
		if err != nil {
			return err
		}
		return il.SavePNG(path, img)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to save image: %w", err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"bytes":    len(data),
	}).Debug("PNG written")
	return nil
}

// ListImages returns the allow-listed regular files directly inside dir,
// sorted by name. Subdirectories are not descended into.
func (il *ImageLoader) ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var files []string
	skipped := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !IsSupported(entry.Name()) {
			skipped++
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	il.logger.WithFields(logrus.Fields{
		"dir":     dir,
		"images":  len(files),
		"skipped": skipped,
	}).Debug("Scanned folder")

	return files, nil
}

func IsPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}
