package gui

import "fyne.io/fyne/v2"

// worker runs blocking work off the UI thread and posts follow-ups back
// onto it. Widgets are only ever touched from post callbacks.
type worker struct {
	spawn func(func())
	post  func(func())
}

func newWorker() *worker {
	return &worker{
		spawn: func(work func()) { go work() },
		post:  fyne.Do,
	}
}
