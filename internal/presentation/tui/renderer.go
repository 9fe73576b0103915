package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// It auto-detects the terminal background; when rendering fails the raw
// text is returned unchanged so the conversation never stalls on styling.
func NewRenderer() func(string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)

	return func(markdown string) string {
		if err != nil || r == nil {
			return markdown
		}
		out, renderErr := r.Render(markdown)
		if renderErr != nil {
			return markdown
		}
		return out
	}
}
