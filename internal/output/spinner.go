package output

import (
	"github.com/charmbracelet/huh/spinner"
)

// Spinner runs a long eoas stage, such as the export or an upload, behind an
// animated title. Without a terminal the title is printed as a step instead.
// An error from the stage wins over one from the animation.
func (w *Writer) Spinner(title string, stage func() error) error {
	if !w.interactive {
		w.Step("%s...", title)
		return stage()
	}

	var stageErr error
	animErr := spinner.New().
		Type(spinner.Dots).
		Title(" " + title + "...").
		Action(func() { stageErr = stage() }).
		Run()
	if stageErr != nil {
		return stageErr
	}
	return animErr
}
