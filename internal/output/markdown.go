package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/jamalpur-chamber/chamber/internal/models"
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

// NoticeMarkdown builds the markdown document for a notice detail view.
func NoticeMarkdown(n *models.Notice) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", n.Title)

	meta := []string{fmt.Sprintf("**Priority:** %s", orDefault(string(n.Priority), string(models.PriorityNormal)))}
	if !n.CreatedAt.IsZero() {
		meta = append(meta, fmt.Sprintf("**Posted:** %s", n.CreatedAt.Format("2 Jan 2006")))
	}
	sb.WriteString(strings.Join(meta, " · "))
	sb.WriteString("\n\n")

	if strings.TrimSpace(n.Content) != "" {
		sb.WriteString(n.Content)
		sb.WriteString("\n\n")
	}
	if n.PdfFile != nil {
		if name := attachmentName(n.PdfFile); name != "" {
			fmt.Fprintf(&sb, "> Attachment (%s): %s\n", n.PdfFile.Kind(), name)
		} else {
			fmt.Fprintf(&sb, "> Attachment (%s)\n", n.PdfFile.Kind())
		}
	}
	return sb.String()
}

// RenderNotice renders a notice detail at the given width.
func RenderNotice(n *models.Notice, width int) (string, error) {
	return RenderMarkdownWithWidth(NoticeMarkdown(n), width)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}
