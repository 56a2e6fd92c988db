// Package console renders the paced narrative as a two-column chat in a
// terminal: left device bubbles on the left, right device bubbles on the
// right.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hejijunhao/edgepair/pkg/edgepair"
)

// DefaultWidth is the terminal width assumed when none is configured.
const DefaultWidth = 80

// Theme is the palette used for the two sides.
type Theme struct {
	Left  lipgloss.Color
	Right lipgloss.Color
	Faint lipgloss.Color
}

// DefaultTheme is tuned for dark terminals.
var DefaultTheme = Theme{
	Left:  lipgloss.Color("39"),
	Right: lipgloss.Color("208"),
	Faint: lipgloss.Color("245"),
}

// Renderer formats narrative entries for a fixed terminal width.
type Renderer struct {
	width int
	names [2]string
	theme Theme
}

// NewRenderer creates a Renderer. left and right are the device names shown
// above each bubble.
func NewRenderer(width int, left, right string, theme Theme) Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	return Renderer{width: width, names: [2]string{left, right}, theme: theme}
}

// Render formats one entry. An entry with both sides set renders the left
// bubble above the right one.
func (r Renderer) Render(e edgepair.Entry) string {
	var parts []string
	if e.Left != nil {
		parts = append(parts, r.bubble(0, e.Left))
	}
	if e.Right != nil {
		parts = append(parts, r.bubble(1, e.Right))
	}
	return strings.Join(parts, "\n")
}

func (r Renderer) bubble(side int, p *edgepair.Payload) string {
	color := r.theme.Left
	align := lipgloss.Left
	if side == 1 {
		color = r.theme.Right
		align = lipgloss.Right
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(color).Render(r.names[side])
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		MaxWidth(r.bubbleWidth()).
		Width(r.bubbleWidth() - 2).
		Render(r.content(p))

	block := lipgloss.JoinVertical(align, header, body)
	return lipgloss.PlaceHorizontal(r.width, align, block)
}

// bubbleWidth leaves a third of the line free so the sides stay apart.
func (r Renderer) bubbleWidth() int {
	return r.width * 2 / 3
}

func (r Renderer) content(p *edgepair.Payload) string {
	if p.Image == "" {
		return emphasize(p.Text)
	}
	faint := lipgloss.NewStyle().Foreground(r.theme.Faint)
	lines := []string{faint.Render("[image] " + p.Image)}
	if p.Caption != "" {
		lines = append(lines, emphasize(p.Caption))
	}
	return strings.Join(lines, "\n")
}

// emphasize renders **bold** spans.
func emphasize(s string) string {
	parts := strings.Split(s, "**")
	if len(parts) < 3 {
		return s
	}
	bold := lipgloss.NewStyle().Bold(true)
	var b strings.Builder
	for i, part := range parts {
		// An unmatched trailing marker is kept literally.
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString(bold.Render(part))
			continue
		}
		if i%2 == 1 {
			b.WriteString("**")
		}
		b.WriteString(part)
	}
	return b.String()
}

// Run writes every entry received on entries to w until the channel closes
// or ctx is done.
func Run(ctx context.Context, w io.Writer, r Renderer, entries <-chan edgepair.Entry) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-entries:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(w, r.Render(e)); err != nil {
				return fmt.Errorf("console: %w", err)
			}
		}
	}
}
