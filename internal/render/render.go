package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Markdown renders markdown content for terminal display.
// Uses a pooled renderer for better performance and thread safety.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Literal returns text with every terminal control sequence removed, so it
// prints exactly as typed.
func Literal(text string) string {
	return ansi.Strip(text)
}

// Reply renders an ai reply as markdown when enabled, falling back to the
// literal text if rendering fails.
func Reply(text string, markdown bool, opts Options) string {
	if !markdown {
		return Literal(text)
	}
	out, err := Markdown(text, opts)
	if err != nil {
		return Literal(text)
	}
	return strings.Trim(out, "\n")
}
