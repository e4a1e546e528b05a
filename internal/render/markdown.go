// Package render formats help text blocks as terminal markdown.
package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

var rendererCache sync.Map

// Markdown renders text as terminal markdown wrapped to width. When
// disabled, or when rendering fails, the trimmed source text is
// returned unchanged.
func Markdown(text string, width int, enabled bool) string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return ""
	}
	if !enabled {
		return clean
	}
	if width <= 0 {
		width = 80
	}

	renderer, err := getRenderer(width)
	if err != nil {
		return clean
	}
	out, err := renderer.Render(clean)
	if err != nil {
		return clean
	}
	return strings.TrimRight(out, "\n")
}

func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		if r, ok := cached.(*glamour.TermRenderer); ok {
			return r, nil
		}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	rendererCache.Store(width, renderer)
	return renderer, nil
}
