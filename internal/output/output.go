// Package output writes the human-facing side of eoas: progress steps,
// status lines, summaries and dashboard tables on stderr. Machine-readable
// results never go through it.
//
// Styling is dropped when stderr is not a terminal or NO_COLOR is set.
// Prompts and spinners are disabled under CI and EXPO_NONINTERACTIVE, the
// same switches Expo tooling honors.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
)

var (
	arrowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	infoStyle    = lipgloss.NewStyle().Faint(true)
	keyStyle     = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
)

// Writer is the eoas terminal. Commands share one, built by New; tests use
// NewTest to get plain, prompt-free output.
type Writer struct {
	w           io.Writer
	interactive bool // prompts and spinners allowed
	color       bool
}

// KeyValue is one line of a publish or rollback summary.
type KeyValue struct {
	Key   string
	Value string
}

// New returns the Writer for stderr.
func New() *Writer {
	return NewWriter(os.Stderr)
}

// NewWriter detects terminal support on w through its file descriptor, if
// it has one.
func NewWriter(w io.Writer) *Writer {
	tty := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Writer{
		w:           w,
		interactive: tty && !nonInteractiveEnv(),
		color:       tty && os.Getenv("NO_COLOR") == "",
	}
}

func nonInteractiveEnv() bool {
	for _, key := range []string{"CI", "EXPO_NONINTERACTIVE"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// NewTest returns an uncolored Writer that never prompts.
func NewTest(w io.Writer) *Writer {
	return &Writer{w: w}
}

// IsInteractive reports whether prompts may be shown.
func (w *Writer) IsInteractive() bool {
	return w.interactive
}

// SetInteractive applies --non-interactive. It can only switch prompts off.
func (w *Writer) SetInteractive(interactive bool) {
	w.interactive = w.interactive && interactive
}

// Writer exposes the destination so the export subprocess can stream into it.
func (w *Writer) Writer() io.Writer {
	return w.w
}

func (w *Writer) render(style lipgloss.Style, s string) string {
	if !w.color {
		return s
	}
	return style.Render(s)
}

func (w *Writer) labeled(style lipgloss.Style, label, format string, args []any) {
	fmt.Fprintf(w.w, "%s %s\n", w.render(style, label), fmt.Sprintf(format, args...))
}

// Step announces the next stage of a command, as "-> message".
func (w *Writer) Step(format string, args ...any) {
	w.labeled(arrowStyle, "->", format, args)
}

// Success prints "OK message".
func (w *Writer) Success(format string, args ...any) {
	w.labeled(okStyle, "OK", format, args)
}

// Error prints "ERROR message".
func (w *Writer) Error(format string, args ...any) {
	w.labeled(errorStyle, "ERROR", format, args)
}

// Warning prints "WARNING message".
func (w *Writer) Warning(format string, args ...any) {
	w.labeled(warningStyle, "WARNING", format, args)
}

// Info prints a detail line under the current step.
func (w *Writer) Info(format string, args ...any) {
	fmt.Fprintf(w.w, "   %s\n", w.render(infoStyle, fmt.Sprintf(format, args...)))
}

// Result prints a summary block with the values lined up in one column.
func (w *Writer) Result(pairs []KeyValue) {
	if len(pairs) == 0 {
		return
	}

	width := 0
	for _, p := range pairs {
		width = max(width, len(p.Key))
	}

	fmt.Fprintln(w.w)
	for _, p := range pairs {
		key := w.render(keyStyle, fmt.Sprintf("%-*s", width, p.Key))
		fmt.Fprintf(w.w, "  %s  %s\n", key, p.Value)
	}
}

// Table prints dashboard rows without borders.
func (w *Writer) Table(headers []string, rows [][]string) {
	t := table.New().
		Headers(headers...).
		Rows(rows...).
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(false)

	if w.color {
		t = t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
	}

	fmt.Fprintln(w.w, t.Render())
}

// Println prints an unstyled line.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.w, format+"\n", args...)
}
