package gui

import (
	"fmt"
	"image"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"background-remover/internal/core"
	"background-remover/internal/io"
)

const (
	singleJob         = "image processing"
	resultPlaceholder = "Your result will appear here."
	processingMessage = "Processing..."
	processingFailed  = "Processing failed."
)

// SingleTab shows one image before and after background removal
type SingleTab struct {
	app       *Application
	processor *core.SingleProcessor
	imageData *core.ImageData
	logger    *logrus.Logger

	previewSize fyne.Size

	content        fyne.CanvasObject
	selectButton   *widget.Button
	saveButton     *widget.Button
	originalImage  *canvas.Image
	processedImage *canvas.Image
	processedHint  *widget.Label
}

func NewSingleTab(app *Application, processor *core.SingleProcessor, imageData *core.ImageData, previewSize fyne.Size, logger *logrus.Logger) *SingleTab {
	tab := &SingleTab{
		app:         app,
		processor:   processor,
		imageData:   imageData,
		logger:      logger,
		previewSize: previewSize,
	}

	tab.initializeUI()
	return tab
}

func (st *SingleTab) initializeUI() {
	st.selectButton = widget.NewButtonWithIcon("Select Image", theme.FolderOpenIcon(), st.SelectImage)
	st.selectButton.Importance = widget.HighImportance

	st.saveButton = widget.NewButtonWithIcon("Save Image", theme.DocumentSaveIcon(), st.SaveImage)
	st.saveButton.Disable()

	st.originalImage = newPreviewImage(st.previewSize)
	st.processedImage = newPreviewImage(st.previewSize)
	st.processedHint = widget.NewLabelWithStyle(resultPlaceholder, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	controls := container.NewGridWithColumns(2, st.selectButton, st.saveButton)

	originalCard := widget.NewCard("Original Image", "", st.originalImage)
	processedCard := widget.NewCard("Background Removed", "",
		container.NewStack(st.processedImage, container.NewCenter(st.processedHint)))

	st.content = container.NewBorder(
		container.NewPadded(controls), // top
		nil,                           // bottom
		nil,                           // left
		nil,                           // right
		container.NewGridWithColumns(2, originalCard, processedCard),
	)
}

func newPreviewImage(minSize fyne.Size) *canvas.Image {
	img := canvas.NewImageFromImage(nil)
	img.FillMode = canvas.ImageFillContain
	img.ScaleMode = canvas.ImageScaleSmooth
	img.SetMinSize(fyne.NewSize(minSize.Width/2, minSize.Height/2))
	return img
}

func (st *SingleTab) GetContainer() fyne.CanvasObject {
	return st.content
}

// SelectImage opens the file picker; choosing a file starts processing
func (st *SingleTab) SelectImage() {
	if st.app.activeJob != "" {
		st.app.busyWarning()
		return
	}

	st.logger.Info("Opening file dialog for image selection")

	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			st.app.ShowError("File Dialog Error", err)
			return
		}
		if reader == nil {
			return // cancelled
		}
		path := reader.URI().Path()
		reader.Close()

		st.openAndProcess(path)
	}, st.app.Window())

	fileDialog.SetFilter(storage.NewExtensionFileFilter(io.SupportedExtensions()))
	fileDialog.Show()
}

// openAndProcess shows the original for path and removes its background on
// a worker goroutine. Save stays disabled until that succeeds.
func (st *SingleTab) openAndProcess(path string) {
	if !st.app.beginJob(singleJob) {
		st.app.busyWarning()
		return
	}

	st.app.SetStatus(fmt.Sprintf("Selected: %s", filepath.Base(path)))
	st.saveButton.Disable()
	st.showProcessed(nil, processingMessage)

	original, err := st.processor.Open(path)
	if err != nil {
		st.app.endJob()
		st.showProcessed(nil, resultPlaceholder)
		st.app.ShowError("Error", err)
		return
	}
	st.showOriginal(original)

	st.selectButton.Disable()
	st.app.SetStatus("Processing... Please wait.")

	ctx := st.app.Context()
	st.app.worker.spawn(func() {
		result, err := st.processor.Remove(ctx, path)
		st.app.worker.post(func() {
			st.finishProcessing(result, err)
		})
	})
}

func (st *SingleTab) finishProcessing(result *core.SingleResult, err error) {
	st.app.endJob()
	st.selectButton.Enable()

	if err != nil {
		st.showProcessed(nil, processingFailed)
		st.app.SetStatus("Error during processing.")
		st.app.ShowError("Processing Error", err)
		return
	}

	st.showProcessed(result.Processed, "")
	st.saveButton.Enable()
	st.app.SetStatus("Processing complete! Click 'Save Image'.")
}

// showOriginal displays a resized copy; the session keeps the full image
func (st *SingleTab) showOriginal(img image.Image) {
	st.originalImage.Image = core.Thumbnail(img, int(st.previewSize.Width), int(st.previewSize.Height))
	st.originalImage.Refresh()
}

func (st *SingleTab) showProcessed(img image.Image, hint string) {
	st.processedImage.Image = core.Thumbnail(img, int(st.previewSize.Width), int(st.previewSize.Height))
	st.processedImage.Refresh()

	st.processedHint.SetText(hint)
	if hint == "" {
		st.processedHint.Hide()
	} else {
		st.processedHint.Show()
	}
}

// SaveImage asks for a destination and writes the processed PNG
func (st *SingleTab) SaveImage() {
	if !st.imageData.HasProcessed() {
		st.app.ShowError("Save Error", core.ErrNoProcessedImage)
		return
	}

	st.logger.Info("Opening file dialog for image saving")

	fileDialog := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			st.app.ShowError("File Dialog Error", err)
			return
		}
		if writer == nil {
			return // cancelled
		}
		path := writer.URI().Path()
		writer.Close()

		st.saveTo(path)
	}, st.app.Window())

	fileDialog.SetFileName(st.processor.DefaultSaveName())
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	fileDialog.Show()
}

func (st *SingleTab) saveTo(path string) {
	if err := st.processor.Save(path); err != nil {
		st.app.ShowError("Save Error", err)
		return
	}

	st.app.SetStatus(fmt.Sprintf("Image saved to %s", path))
	st.app.ShowInfo("Success", "The image has been saved successfully!")
}
