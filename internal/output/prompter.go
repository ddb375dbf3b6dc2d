package output

// Prompter is the interactive surface of Writer.
type Prompter interface {
	IsInteractive() bool
	Confirm(title string) (bool, error)
	Select(title string, options []SelectOption) (string, error)
	Input(title, initial string, validate func(string) error) (string, error)
}

var _ Prompter = (*Writer)(nil)
