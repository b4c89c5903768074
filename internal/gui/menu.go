// Menu handler for application actions
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"
)

// MenuHandler handles menu actions
type MenuHandler struct {
	window fyne.Window
	logger *logrus.Logger

	onOpenImage func()
	onSaveImage func()
	onBatch     func()
}

func NewMenuHandler(window fyne.Window, logger *logrus.Logger) *MenuHandler {
	return &MenuHandler{
		window: window,
		logger: logger,
	}
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mh.call(&mh.onOpenImage)),
		fyne.NewMenuItem("Save Image...", mh.call(&mh.onSaveImage)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Batch Processing", mh.call(&mh.onBatch)),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mh.showAbout),
	)

	// Fyne appends Quit to the first menu
	return fyne.NewMainMenu(fileMenu, helpMenu)
}

func (mh *MenuHandler) call(fn *func()) func() {
	return func() {
		if *fn != nil {
			(*fn)()
		}
	}
}

func (mh *MenuHandler) showAbout() {
	mh.logger.Debug("Showing about dialog")

	content := container.NewVBox(
		widget.NewLabel(appTitle),
		widget.NewSeparator(),
		widget.NewLabel(appSubtitle),
		widget.NewLabel("Single images or whole folders are sent to a"),
		widget.NewLabel("pre-trained segmentation model; results are"),
		widget.NewLabel("written as PNG files with a transparent background."),
		widget.NewSeparator(),
		widget.NewLabel("Built with Go, Fyne v2.6, and OpenCV"),
	)

	aboutDialog := dialog.NewCustom("About", "Close", content, mh.window)
	aboutDialog.Resize(fyne.NewSize(400, 300))
	aboutDialog.Show()
}

func (mh *MenuHandler) SetCallbacks(onOpenImage, onSaveImage, onBatch func()) {
	mh.onOpenImage = onOpenImage
	mh.onSaveImage = onSaveImage
	mh.onBatch = onBatch
}
