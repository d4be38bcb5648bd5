package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// barWidth is the fill width of the progress bar in cells.
const barWidth = 20

// Meter rewrites a single progress line in place as repositories
// complete. Callers decide up front whether the output is interactive;
// a disabled meter ignores every call.
type Meter struct {
	out     io.Writer
	enabled bool

	// width is the widest line currently on screen, so shorter updates
	// and Done can blank it fully.
	width int
}

// NewMeter returns a progress meter writing to out.
func NewMeter(out io.Writer, enabled bool) *Meter {
	return &Meter{out: out, enabled: enabled}
}

// Update rewrites the progress line for the given completion state.
func (m *Meter) Update(done, total int, name string) {
	if !m.enabled || total <= 0 {
		return
	}
	filled := done * barWidth / total
	if filled > barWidth {
		filled = barWidth
	}
	line := fmt.Sprintf("[%d/%d] [%-*s] %s", done, total, barWidth, strings.Repeat("#", filled), name)
	width := utf8.RuneCountInString(line)
	pad := 0
	if width < m.width {
		pad = m.width - width
	} else {
		m.width = width
	}
	fmt.Fprint(m.out, "\r"+line+strings.Repeat(" ", pad))
}

// Done blanks the progress line, leaving the cursor at column zero.
func (m *Meter) Done() {
	if !m.enabled || m.width == 0 {
		return
	}
	fmt.Fprint(m.out, "\r"+strings.Repeat(" ", m.width)+"\r")
	m.width = 0
}
