// Package prompttest provides a scripted output.Prompter for tests.
package prompttest

import (
	"fmt"
	"sync"

	"github.com/expo-open-ota/eoas/internal/output"
)

// Prompter answers prompts from queues. A prompt with no queued answer fails
// the way a non-interactive Writer does. Asked records every prompt title in
// order and Offered the options of every Select call.
type Prompter struct {
	mu sync.Mutex

	Interactive bool
	Confirms    []bool
	Inputs      []string
	Selects     []string

	Asked   []string
	Offered [][]output.SelectOption
}

var _ output.Prompter = (*Prompter)(nil)

// New returns an interactive Prompter.
func New() *Prompter {
	return &Prompter{Interactive: true}
}

func (p *Prompter) IsInteractive() bool {
	return p.Interactive
}

func (p *Prompter) Confirm(title string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, title)
	if !p.Interactive || len(p.Confirms) == 0 {
		return false, fmt.Errorf("cannot prompt for confirmation in non-interactive mode")
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *Prompter) Select(title string, options []output.SelectOption) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, title)
	p.Offered = append(p.Offered, options)
	if !p.Interactive || len(p.Selects) == 0 {
		return "", fmt.Errorf("cannot prompt for selection in non-interactive mode")
	}
	answer := p.Selects[0]
	p.Selects = p.Selects[1:]
	return answer, nil
}

// Input returns the next queued answer. An empty answer selects initial.
// The validator runs like it would in the terminal prompt.
func (p *Prompter) Input(title, initial string, validate func(string) error) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Asked = append(p.Asked, title)
	if !p.Interactive || len(p.Inputs) == 0 {
		return "", fmt.Errorf("cannot prompt for input in non-interactive mode")
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	if answer == "" {
		answer = initial
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}
