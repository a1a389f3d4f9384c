package output

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	return defaultMarkdown.Render(text, width)
}

var defaultMarkdown = NewMarkdownCache("")

// MarkdownCache renders application descriptions and keeps the last result
// per width, since the console redraws the same description on every frame.
type MarkdownCache struct {
	style string // glamour standard style; empty picks one from the terminal

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
	lastText  string
	lastWidth int
	lastOut   string
}

// NewMarkdownCache creates a cache using a glamour standard style such as
// "dark", "light" or "notty".
func NewMarkdownCache(style string) *MarkdownCache {
	return &MarkdownCache{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render renders text wrapped at width.
func (m *MarkdownCache) Render(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if text == m.lastText && width == m.lastWidth && m.lastOut != "" {
		return m.lastOut, nil
	}

	renderer, ok := m.renderers[width]
	if !ok {
		styleOpt := glamour.WithAutoStyle()
		if m.style != "" {
			styleOpt = glamour.WithStandardStyle(m.style)
		}
		var err error
		renderer, err = glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
		if err != nil {
			return "", err
		}
		m.renderers[width] = renderer
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}
	m.lastText, m.lastWidth = text, width
	m.lastOut = strings.TrimRight(rendered, "\n")
	return m.lastOut, nil
}
