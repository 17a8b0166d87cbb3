package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/evanschultz/arcboard/internal/domain"
	"github.com/muesli/reflow/wordwrap"
)

// cardStyle controls how a single card is painted.
type cardStyle struct {
	selected    bool
	highlighted bool
	largeFont   bool
	// faded is set for cards mid exit animation.
	faded bool
}

// priorityColor returns the border/dot colour for a priority.
func priorityColor(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "203"
	case domain.PriorityFocus:
		return "214"
	case domain.PriorityLow:
		return "244"
	default:
		return "75"
	}
}

// renderCard paints a card exactly w cells wide and h cells tall.
func renderCard(task domain.Task, w, h int, style cardStyle) string {
	innerW := max(1, w-2)
	innerH := max(1, h-2)

	dot := lipgloss.NewStyle().Foreground(lipgloss.Color(priorityColor(task.Priority))).Render("●")
	label := strings.ToUpper(string(task.Priority))
	head := padCell(dot+" "+ansi.Truncate(label, max(0, innerW-2), "…"), innerW)

	textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	if style.largeFont {
		textStyle = textStyle.Bold(true)
	}
	footer := "DRAG ← DONE"
	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if task.IsDone() {
		textStyle = textStyle.Faint(true).Strikethrough(true)
		footer = "ARCHIVED"
	}
	if style.faded {
		textStyle = textStyle.Faint(true)
	}

	lines := []string{head}
	bodyRows := innerH - 2
	if bodyRows > 0 {
		wrapped := strings.Split(wordwrap.String(task.Text, innerW), "\n")
		body := make([]string, 0, bodyRows)
		for _, line := range wrapped {
			body = append(body, padCell(textStyle.Render(ansi.Truncate(line, innerW, "…")), innerW))
		}
		body = strings.Split(fitLines(strings.Join(body, "\n"), bodyRows), "\n")
		for idx := range body {
			body[idx] = padCell(body[idx], innerW)
		}
		lines = append(lines, body...)
	}
	if innerH > 1 {
		lines = append(lines, padCell(footerStyle.Render(ansi.Truncate(footer, innerW, "")), innerW))
	}
	content := strings.Join(lines[:min(len(lines), innerH)], "\n")

	border := lipgloss.RoundedBorder()
	borderColor := priorityColor(task.Priority)
	switch {
	case style.selected:
		border = lipgloss.ThickBorder()
		borderColor = "212"
	case style.highlighted:
		borderColor = "226"
	case task.IsDone() || style.faded:
		borderColor = "239"
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(lipgloss.Color(borderColor)).
		Render(content)
}

// padCell right-pads s with spaces to exactly width display cells.
func padCell(s string, width int) string {
	gap := width - ansi.StringWidth(s)
	if gap <= 0 {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", gap)
}

// boardLayer is one card ready to composite.
type boardLayer struct {
	content string
	box     cardBox
}

// composeBoard draws layers onto a width x height canvas in slice order, later
// layers on top. Layers overhanging the edges are cropped.
func composeBoard(layers []boardLayer, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(fitLines("", height)).X(0).Y(0).Z(0))
	for idx, layer := range layers {
		content, x, y, ok := cropLayer(layer.content, layer.box, width, height)
		if !ok {
			continue
		}
		canvas.Compose(lipgloss.NewLayer(content).X(x).Y(y).Z(idx + 1))
	}
	return canvas.Render()
}

// cropLayer clips a rendered block to the visible area and returns its new
// origin.
func cropLayer(content string, box cardBox, width, height int) (string, int, int, bool) {
	lines := strings.Split(content, "\n")
	top := max(0, -box.y)
	bottom := min(len(lines), height-box.y)
	if top >= bottom {
		return "", 0, 0, false
	}
	left := max(0, -box.x)
	right := min(box.w, width-box.x)
	if left >= right {
		return "", 0, 0, false
	}
	out := make([]string, 0, bottom-top)
	for _, line := range lines[top:bottom] {
		out = append(out, ansi.Cut(line, left, right))
	}
	return strings.Join(out, "\n"), box.x + left, box.y + top, true
}
