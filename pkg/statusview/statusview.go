// Package statusview renders a terminal frame showing live channel
// occupancy for the demo CLI: which channels are playing, their committed
// volume/pan, and local mixdown flags. It has no dependency on the mixer
// package's internals — callers build a []ChannelView snapshot from
// whatever introspection the mixdown exposes.
package statusview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for the status view.
type Theme struct {
	Primary lipgloss.Color
	Playing lipgloss.Color
	Idle    lipgloss.Color
}

// DefaultTheme matches the bright-accent, dim-secondary look this family of
// CLI tools uses elsewhere.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Playing: lipgloss.Color("#5fd7ff"),
	Idle:    lipgloss.Color("#6e7681"),
}

// Styles holds the derived lipgloss styles for a Theme.
type Styles struct {
	Title   lipgloss.Style
	Border  lipgloss.Style
	Playing lipgloss.Style
	Idle    lipgloss.Style
}

// NewStyles builds Styles from a Theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Border:  lipgloss.NewStyle().Foreground(t.Primary),
		Playing: lipgloss.NewStyle().Foreground(t.Playing),
		Idle:    lipgloss.NewStyle().Foreground(t.Idle),
	}
}

// ChannelView is one channel's worth of status, as the caller observes it —
// not the mixer's internal Channel struct, so this package carries no
// import-time dependency on pkg/mixer.
type ChannelView struct {
	Index    int
	Occupied bool
	Path     string // sound path, for diagnostics
	Volume   float32
	Pan      float32
	Started  bool
	Stopped  bool
	Done     bool
}

// Frame renders the occupancy table plus a title line with the mixdown
// kind and sample/buffer size.
type Frame struct {
	Styles  Styles
	Title   string
	Status  string
	Channels []ChannelView
}

// Render draws the frame at the given terminal width. Only occupied
// channels are listed — an idle mixer renders just the title and a single
// "(no channels playing)" line, matching the convention that silence is
// cheap to read.
func (f Frame) Render(width int) string {
	if width <= 0 {
		width = 80
	}
	bc := f.Styles.Border

	var b strings.Builder
	title := f.Styles.Title.Render(f.Title)
	status := f.Styles.Idle.Render("[" + f.Status + "]")
	b.WriteString(bc.Render("╭"+strings.Repeat("─", width-2)+"╮") + "\n")
	pad := max(0, width-5-lipgloss.Width(title)-lipgloss.Width(status))
	b.WriteString(bc.Render("│") + " " + title + " " + status + strings.Repeat(" ", pad) + " " + bc.Render("│") + "\n")
	b.WriteString(bc.Render("├" + strings.Repeat("─", width-2) + "┤") + "\n")

	any := false
	for _, ch := range f.Channels {
		if !ch.Occupied {
			continue
		}
		any = true
		style := f.Styles.Playing
		state := "playing"
		switch {
		case ch.Done:
			style, state = f.Styles.Idle, "done"
		case ch.Stopped:
			state = "stopping"
		case !ch.Started:
			style, state = f.Styles.Idle, "pending"
		}
		line := fmt.Sprintf("ch%02d %-24s vol=%5.1fdB pan=%+.2f %s", ch.Index, truncate(ch.Path, 24), ch.Volume, ch.Pan, state)
		line = style.Render(line)
		lineW := lipgloss.Width(line)
		b.WriteString(bc.Render("│") + " " + line + strings.Repeat(" ", max(0, width-3-lineW)) + bc.Render("│") + "\n")
	}
	if !any {
		empty := f.Styles.Idle.Render("(no channels playing)")
		b.WriteString(bc.Render("│") + " " + empty + strings.Repeat(" ", max(0, width-3-lipgloss.Width(empty))) + bc.Render("│") + "\n")
	}

	b.WriteString(bc.Render("╰" + strings.Repeat("─", width-2) + "╯"))
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
