package gui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/sirupsen/logrus"

	"background-remover/internal/core"
)

const (
	batchJob         = "batch"
	noFolderSelected = "No folder selected"
)

// BatchTab processes every supported image of one folder into another
type BatchTab struct {
	app       *Application
	processor *core.BatchProcessor
	logger    *logrus.Logger

	inputDir  string
	outputDir string
	running   bool
	logLines  []string

	content      fyne.CanvasObject
	inputButton  *widget.Button
	outputButton *widget.Button
	inputLabel   *widget.Label
	outputLabel  *widget.Label
	startButton  *widget.Button
	logView      *widget.Entry
	progressBar  *widget.ProgressBar
}

func NewBatchTab(app *Application, processor *core.BatchProcessor, logger *logrus.Logger) *BatchTab {
	tab := &BatchTab{
		app:       app,
		processor: processor,
		logger:    logger,
	}

	tab.initializeUI()
	return tab
}

func (bt *BatchTab) initializeUI() {
	bt.inputButton = widget.NewButtonWithIcon("Select Input Folder", theme.FolderOpenIcon(), bt.selectInputFolder)
	bt.outputButton = widget.NewButtonWithIcon("Select Output Folder", theme.FolderIcon(), bt.selectOutputFolder)

	bt.inputLabel = widget.NewLabel(noFolderSelected)
	bt.inputLabel.Importance = widget.LowImportance
	bt.outputLabel = widget.NewLabel(noFolderSelected)
	bt.outputLabel.Importance = widget.LowImportance

	bt.startButton = widget.NewButtonWithIcon("Start Batch Processing", theme.MediaPlayIcon(), bt.startBatch)
	bt.startButton.Importance = widget.HighImportance
	bt.startButton.Disable()

	bt.logView = widget.NewMultiLineEntry()
	bt.logView.TextStyle = fyne.TextStyle{Monospace: true}
	bt.logView.Wrapping = fyne.TextWrapOff
	bt.logView.Disable()

	bt.progressBar = widget.NewProgressBar()

	folders := container.NewGridWithColumns(2,
		container.NewVBox(bt.inputButton, bt.inputLabel),
		container.NewVBox(bt.outputButton, bt.outputLabel),
	)

	bt.content = container.NewBorder(
		container.NewVBox(folders, bt.startButton), // top
		bt.progressBar, // bottom
		nil,            // left
		nil,            // right
		bt.logView,
	)
}

func (bt *BatchTab) GetContainer() fyne.CanvasObject {
	return bt.content
}

func (bt *BatchTab) selectInputFolder() {
	bt.showFolderDialog(bt.setInputFolder)
}

func (bt *BatchTab) selectOutputFolder() {
	bt.showFolderDialog(bt.setOutputFolder)
}

func (bt *BatchTab) showFolderDialog(onChosen func(string)) {
	folderDialog := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			bt.app.ShowError("Folder Dialog Error", err)
			return
		}
		if uri == nil {
			return // cancelled
		}
		onChosen(uri.Path())
	}, bt.app.Window())
	folderDialog.Show()
}

func (bt *BatchTab) setInputFolder(path string) {
	bt.inputDir = path
	bt.inputLabel.SetText(shortFolder(path))
	bt.logger.WithField("dir", path).Debug("Input folder selected")
	bt.updateStartState()
}

func (bt *BatchTab) setOutputFolder(path string) {
	bt.outputDir = path
	bt.outputLabel.SetText(shortFolder(path))
	bt.logger.WithField("dir", path).Debug("Output folder selected")
	bt.updateStartState()
}

// updateStartState enables start only when both folders are chosen and no
// batch is running
func (bt *BatchTab) updateStartState() {
	if bt.inputDir != "" && bt.outputDir != "" && !bt.running {
		bt.startButton.Enable()
	} else {
		bt.startButton.Disable()
	}
}

func (bt *BatchTab) startBatch() {
	req := core.BatchRequest{InputDir: bt.inputDir, OutputDir: bt.outputDir}

	if err := bt.processor.Validate(req); err != nil {
		switch {
		case errors.Is(err, core.ErrSameFolder):
			bt.app.ShowWarning("Warning", "Input and Output folders cannot be the same. Please choose a different output folder.")
		case errors.Is(err, core.ErrFolderNotSelected):
			bt.app.ShowWarning("Warning", "Please select both an input and an output folder.")
		default:
			bt.app.ShowError("Batch Error", err)
		}
		return
	}

	if !bt.app.beginJob(batchJob) {
		bt.app.busyWarning()
		return
	}

	bt.setRunning(true)
	bt.progressBar.SetValue(0)
	bt.clearLog()
	bt.app.SetStatus("Batch processing started...")

	post := bt.app.worker.post
	observer := &core.BatchObserver{
		OnLog: func(message string) {
			post(func() { bt.appendLog(message) })
		},
		OnProgress: func(done, total int, fraction float64) {
			post(func() { bt.progressBar.SetValue(fraction) })
		},
	}

	ctx := bt.app.Context()
	bt.app.worker.spawn(func() {
		report, err := bt.processor.Run(ctx, req, observer)
		post(func() { bt.finishBatch(report, err) })
	})
}

func (bt *BatchTab) finishBatch(report *core.BatchReport, err error) {
	bt.app.endJob()
	bt.setRunning(false)

	switch {
	case err != nil:
		bt.appendLog(fmt.Sprintf("An unexpected error occurred: %v", err))
		bt.app.SetStatus("An error occurred during batch processing.")
		bt.app.ShowError("Batch Error", err)
	case report.Cancelled:
		bt.app.SetStatus("Batch processing cancelled.")
	case report.Total == 0:
		bt.app.SetStatus("Batch complete. No images found.")
	default:
		bt.app.SetStatus("Batch processing complete!")
		msg := fmt.Sprintf("Batch processing has finished!\n\nProcessed: %d\nFailed: %d", report.Succeeded, report.Failed)
		bt.app.ShowInfo("Success", msg)
	}
}

func (bt *BatchTab) setRunning(running bool) {
	bt.running = running
	if running {
		bt.inputButton.Disable()
		bt.outputButton.Disable()
	} else {
		bt.inputButton.Enable()
		bt.outputButton.Enable()
	}
	bt.updateStartState()
}

func (bt *BatchTab) clearLog() {
	bt.logLines = bt.logLines[:0]
	bt.logView.SetText("")
}

func (bt *BatchTab) appendLog(message string) {
	bt.logLines = append(bt.logLines, message)
	bt.logView.SetText(strings.Join(bt.logLines, "\n"))
	bt.logView.CursorRow = len(bt.logLines) - 1
	bt.logView.Refresh()
}

// shortFolder renders a folder the way the labels show it: ".../name"
func shortFolder(path string) string {
	if path == "" {
		return noFolderSelected
	}
	return ".../" + filepath.Base(path)
}
