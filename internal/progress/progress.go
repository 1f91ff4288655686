// Package progress renders a single "message current/total" status line.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	cursorUp  = "\033[1A"
	clearLine = "\033[2K\r"
)

var messageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

// Bar is a line counter. On a terminal the line is rewritten in place;
// anywhere else every step is printed on its own line.
type Bar struct {
	w       io.Writer
	total   int
	current int
	inPlace bool
}

// New creates a bar for total steps writing to w.
func New(w io.Writer, total int) *Bar {
	return &Bar{
		w:       w,
		total:   total,
		inPlace: isTerminal(w),
	}
}

// Next advances the counter and redraws the status line.
func (b *Bar) Next(message string) {
	b.current++

	if !b.inPlace {
		fmt.Fprintf(b.w, "%s %d/%d\n", message, b.current, b.total)
		return
	}

	if b.current > 1 {
		fmt.Fprint(b.w, cursorUp+clearLine)
	}
	fmt.Fprintf(b.w, "%s %d/%d\n", messageStyle.Render(message), b.current, b.total)
}

func (b *Bar) Current() int {
	return b.current
}

func (b *Bar) Total() int {
	return b.total
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
