// Main application window: single-file and batch tabs with a status bar
package gui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"background-remover/internal/config"
	"background-remover/internal/core"
	"background-remover/internal/io"
	"background-remover/internal/remover"
)

const (
	WindowTitle = "AI Background Remover"
	appTitle    = "AI Background Remover Pro"
	appSubtitle = "Remove backgrounds from images with one click."
)

// Application represents the main application window
type Application struct {
	app    fyne.App
	window fyne.Window
	logger *logrus.Logger
	cfg    *config.Config

	ctx    context.Context
	cancel context.CancelFunc
	worker *worker

	// Core components
	imageData *core.ImageData
	loader    *io.ImageLoader
	single    *core.SingleProcessor
	batch     *core.BatchProcessor

	// GUI components
	singleTab   *SingleTab
	batchTab    *BatchTab
	menuHandler *MenuHandler
	tabs        *container.AppTabs
	statusLabel *widget.Label

	// name of the running background job, empty when idle
	activeJob string
}

func NewApplication(app fyne.App, rm remover.Remover, cfg *config.Config, logger *logrus.Logger) *Application {
	window := app.NewWindow(WindowTitle)
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	ctx, cancel := context.WithCancel(context.Background())

	a := &Application{
		app:    app,
		window: window,
		logger: logger,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		worker: newWorker(),
	}

	a.initializeCore(rm)
	a.initializeGUI()
	a.setupLayout()

	return a
}

func (a *Application) initializeCore(rm remover.Remover) {
	a.imageData = core.NewImageData()
	a.loader = io.NewImageLoader(a.logger)
	a.single = core.NewSingleProcessor(a.imageData, a.loader, rm, a.logger)
	a.batch = core.NewBatchProcessor(a.loader, rm, a.logger)
}

func (a *Application) initializeGUI() {
	previewSize := fyne.NewSize(float32(a.cfg.UI.PreviewWidth), float32(a.cfg.UI.PreviewHeight))

	a.statusLabel = widget.NewLabel("Welcome! Select a mode to get started.")
	a.singleTab = NewSingleTab(a, a.single, a.imageData, previewSize, a.logger)
	a.batchTab = NewBatchTab(a, a.batch, a.logger)
	a.menuHandler = NewMenuHandler(a.window, a.logger)
}

func (a *Application) setupLayout() {
	title := canvas.NewText(appTitle, theme.ForegroundColor())
	title.TextSize = 24
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter
	subtitle := widget.NewLabelWithStyle(appSubtitle, fyne.TextAlignCenter, fyne.TextStyle{})
	subtitle.Importance = widget.LowImportance

	header := container.NewVBox(title, subtitle)

	a.tabs = container.NewAppTabs(
		container.NewTabItem("Single File", a.singleTab.GetContainer()),
		container.NewTabItem("Batch Processing", a.batchTab.GetContainer()),
	)

	statusBar := container.NewVBox(widget.NewSeparator(), a.statusLabel)

	content := container.NewBorder(
		header,    // top
		statusBar, // bottom
		nil,       // left
		nil,       // right
		container.NewPadded(a.tabs),
	)

	a.menuHandler.SetCallbacks(
		// onOpenImage
		func() {
			a.tabs.SelectIndex(0)
			a.singleTab.SelectImage()
		},
		// onSaveImage
		func() {
			a.tabs.SelectIndex(0)
			a.singleTab.SaveImage()
		},
		// onBatch
		func() {
			a.tabs.SelectIndex(1)
		},
	)

	a.window.SetMainMenu(a.menuHandler.GetMainMenu())
	a.window.SetContent(content)
}

func (a *Application) Window() fyne.Window {
	return a.window
}

func (a *Application) Context() context.Context {
	return a.ctx
}

func (a *Application) SetStatus(message string) {
	if a.statusLabel != nil {
		a.statusLabel.SetText(message)
	}
}

// beginJob claims the single background slot. UI thread only.
func (a *Application) beginJob(name string) bool {
	if a.activeJob != "" {
		a.logger.WithFields(logrus.Fields{
			"requested": name,
			"running":   a.activeJob,
		}).Debug("Job rejected, another one is running")
		return false
	}
	a.activeJob = name
	return true
}

func (a *Application) endJob() {
	a.activeJob = ""
}

func (a *Application) busyWarning() {
	a.ShowWarning("Busy", fmt.Sprintf("Please wait until the current %s finishes.", a.activeJob))
}

func (a *Application) ShowAndRun() {
	a.logger.Info("Showing main application window")

	a.window.SetCloseIntercept(func() {
		a.cleanup()
		a.app.Quit()
	})

	a.window.ShowAndRun()
}

func (a *Application) cleanup() {
	a.logger.Info("Cleaning up application resources")
	a.cancel()
	a.imageData.Clear()
}

func (a *Application) ShowError(title string, err error) {
	a.logger.WithError(err).Error(title)
	dialog.ShowError(err, a.window)
}

func (a *Application) ShowInfo(title, message string) {
	a.logger.WithField("message", message).Info(title)
	dialog.ShowInformation(title, message, a.window)
}

func (a *Application) ShowWarning(title, message string) {
	a.logger.WithField("message", message).Warn(title)
	dialog.ShowInformation(title, message, a.window)
}
