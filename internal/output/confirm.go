package output

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// Confirm shows a yes/no prompt and returns the answer. Returns an error in
// non-interactive mode.
func (w *Writer) Confirm(title string) (bool, error) {
	if !w.interactive {
		return false, fmt.Errorf("cannot prompt for confirmation in non-interactive mode")
	}

	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}

	return confirmed, nil
}

