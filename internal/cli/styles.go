package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// styles renders command output. With --no-color every style is plain.
type styles struct {
	ok    lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	label lipgloss.Style
	dim   lipgloss.Style
}

func newStyles() styles {
	if noColor() {
		plain := lipgloss.NewStyle()
		return styles{ok: plain, fail: plain, warn: plain, label: plain, dim: plain}
	}
	return styles{
		ok:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		label: lipgloss.NewStyle().Bold(true),
		dim:   lipgloss.NewStyle().Faint(true),
	}
}

// field prints one aligned "label: value" line.
func (s styles) field(w io.Writer, label, value string) {
	_, _ = fmt.Fprintf(w, "  %s %s\n", s.label.Render(fmt.Sprintf("%-13s", label+":")), value)
}

// progressLine keeps a single status line updated in place on a terminal stream.
type progressLine struct {
	mu      sync.Mutex
	w       io.Writer
	lastLen int
}

func (p *progressLine) update(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pad := ""
	if n := p.lastLen - len(msg); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	_, _ = fmt.Fprintf(p.w, "\r%s%s", msg, pad)
	p.lastLen = len(msg)
}

// finish ends the status line so later output starts on a fresh line.
func (p *progressLine) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastLen > 0 {
		_, _ = fmt.Fprintln(p.w)
		p.lastLen = 0
	}
}
