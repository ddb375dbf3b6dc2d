package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
)

// SelectOption represents a single option in an interactive select prompt.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// Select shows an interactive selection prompt. Returns an error in
// non-interactive mode (CI or piped output).
func (w *Writer) Select(title string, options []SelectOption) (string, error) {
	if !w.interactive {
		return "", fmt.Errorf("cannot prompt for selection in non-interactive mode")
	}

	huhOpts := make([]huh.Option[string], len(options))
	for i, opt := range options {
		label := opt.Label
		if opt.Description != "" {
			label = fmt.Sprintf("%s (%s)", opt.Label, opt.Description)
		}
		huhOpts[i] = huh.NewOption(label, opt.Value)
	}

	var value string
	err := huh.NewSelect[string]().
		Title(title).
		Options(huhOpts...).
		Value(&value).
		Run()
	if err != nil {
		return "", fmt.Errorf("selection prompt failed: %w", err)
	}

	return value, nil
}

// Input shows an interactive free-text input prompt pre-filled with initial.
// A nil validate accepts any value. Returns an error in non-interactive mode.
func (w *Writer) Input(title, initial string, validate func(string) error) (string, error) {
	if !w.interactive {
		return "", fmt.Errorf("cannot prompt for input in non-interactive mode")
	}

	value := initial
	input := huh.NewInput().
		Title(title).
		Value(&value)
	if validate != nil {
		input = input.Validate(validate)
	}
	if err := input.Run(); err != nil {
		return "", fmt.Errorf("input prompt failed: %w", err)
	}

	return strings.TrimSpace(value), nil
}

// ValidatePositiveInt accepts strings holding an integer greater than zero.
func ValidatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

