// Package output provides styled terminal output helpers (success, error,
// warning, notice and gallery formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

var (
	// Styles
	titleStyle     = lipgloss.NewStyle().Bold(true)
	subtleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	linkStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Underline(true)
	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		models.PriorityNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityUrgent: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	stateStyles = map[string]lipgloss.Style{
		"connected":    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		"connecting":   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		"disconnected": lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		"failed":       lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// OutputMode determines output format
type OutputMode int

const (
	ModeShort OutputMode = iota
	ModeLong
	ModeJSON
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNetwork      = "network_error"
	ErrCodeStoreError   = "store_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	JSONErrorWithDetails(code, message, nil)
}

// JSONErrorWithDetails outputs an error as JSON with additional context
func JSONErrorWithDetails(code, message string, details map[string]interface{}) {
	errObj := map[string]interface{}{
		"code":    code,
		"message": message,
	}
	if len(details) > 0 {
		errObj["details"] = details
	}
	result := map[string]interface{}{
		"error": errObj,
	}
	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(data))
}

// FormatPriority formats a priority with color
func FormatPriority(p models.Priority) string {
	if p == "" {
		p = models.PriorityNormal
	}
	style, ok := priorityStyles[p]
	if !ok {
		return fmt.Sprintf("[%s]", p)
	}
	return style.Render(fmt.Sprintf("[%s]", p))
}

// FormatState formats a live channel state name
func FormatState(state string) string {
	symbol := "○"
	switch state {
	case "connected":
		symbol = "●"
	case "connecting":
		symbol = "◌"
	case "failed":
		symbol = "✗"
	}
	style, ok := stateStyles[state]
	if !ok {
		return fmt.Sprintf("%s %s", symbol, state)
	}
	return style.Render(fmt.Sprintf("%s %s", symbol, state))
}

// FormatPdfBadge describes where a notice attachment lives, or "" when it has
// none.
func FormatPdfBadge(ref *models.PdfFile) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind() {
	case models.PdfInvalid:
		return errorStyle.Render("[pdf: unavailable]")
	default:
		return subtleStyle.Render(fmt.Sprintf("[pdf: %s]", ref.Kind()))
	}
}

// FormatNoticeShort formats a notice on one line
func FormatNoticeShort(n *models.Notice) string {
	var parts []string
	parts = append(parts, titleStyle.Render(n.Key()))
	parts = append(parts, FormatPriority(n.Priority))
	parts = append(parts, n.Title)
	if badge := FormatPdfBadge(n.PdfFile); badge != "" {
		parts = append(parts, badge)
	}
	if !n.CreatedAt.IsZero() {
		parts = append(parts, subtleStyle.Render(FormatTimeAgo(n.CreatedAt)))
	}
	return strings.Join(parts, "  ")
}

// FormatNoticeLong formats a notice with its full content
func FormatNoticeLong(n *models.Notice) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("%s: %s", n.Key(), n.Title)))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Priority: %s", FormatPriority(n.Priority)))
	if !n.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf(" | Posted: %s", n.CreatedAt.Format("2006-01-02 15:04")))
	}
	sb.WriteString("\n")

	if n.PdfFile != nil {
		sb.WriteString(fmt.Sprintf("Attachment: %s %s\n", FormatPdfBadge(n.PdfFile), attachmentName(n.PdfFile)))
	}

	if n.Content != "" {
		sb.WriteString("\n")
		sb.WriteString(n.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func attachmentName(ref *models.PdfFile) string {
	for _, name := range []string{ref.OriginalName, ref.Name, ref.Filename} {
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatImageShort formats a gallery image on one line
func FormatImageShort(img *models.GalleryImage) string {
	var parts []string
	id := img.Key()
	if img.IsPlaceholder() {
		id = subtleStyle.Render(id + " (pending)")
	} else {
		id = titleStyle.Render(id)
	}
	parts = append(parts, id)
	parts = append(parts, img.Title)
	if img.Description != "" {
		parts = append(parts, subtleStyle.Render(img.Description))
	}
	if img.ImageURL != "" {
		parts = append(parts, linkStyle.Render(img.ImageURL))
	}
	return strings.Join(parts, "  ")
}

// FormatUser formats the logged-in user with an admin badge
func FormatUser(u *models.User) string {
	if u == nil {
		return subtleStyle.Render("not logged in")
	}
	name := u.Name
	if name == "" {
		name = u.Email
	}
	if u.Admin() {
		return fmt.Sprintf("%s %s", titleStyle.Render(name), warningStyle.Render("[Admin]"))
	}
	return titleStyle.Render(name)
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// FormatAge formats a duration as a short age such as "4m12s"
func FormatAge(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	return d.Truncate(time.Second).String()
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nQUICK LINKS:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}

// IndentString indents each line in a string by the specified number of spaces
func IndentString(s string, spaces int) string {
	if s == "" {
		return ""
	}
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
