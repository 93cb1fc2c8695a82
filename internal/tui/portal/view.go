package portal

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/jamalpur-chamber/chamber/internal/socket"
)

const aboutText = `The Jamalpur Chamber of Commerce and Industry represents the traders,
manufacturers and service providers of Jamalpur district.

Members receive notices on fees, meetings and trade events through this
portal. Browse the Notice page for announcements and attached documents,
and the gallery for photographs of chamber activities.`

var pageTitles = map[string]string{
	"/form":     "Membership Form",
	"/admin":    "Admin Dashboard",
	"/login":    "Login",
	"/register": "Register",
	"/help":     "Help Center",
	"/contact":  "Contact Us",
	"/privacy":  "Privacy Policy",
	"/terms":    "Terms of Service",
	"/faq":      "FAQ",
	"/cookies":  "Cookies",
}

// renderView renders the complete TUI view
func (m Model) renderView() string {
	if m.Width == 0 || m.Height == 0 {
		return "Loading..."
	}

	// Handle small terminal sizes gracefully
	if m.Width < MinWidth || m.Height < MinHeight {
		return m.renderCompact()
	}

	if m.ShowHelp {
		return m.renderHelp()
	}

	parts := []string{RenderNav(m.User, m.Route, m.Width), m.renderBody()}
	if m.ShowFooter {
		parts = append(parts, RenderFooter(m.Width))
	}
	parts = append(parts, m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderCompact renders a minimal view for small terminals
func (m Model) renderCompact() string {
	var s strings.Builder
	s.WriteString("chamber portal (resize for full view)\n\n")
	s.WriteString(fmt.Sprintf("Notices: %d | Images: %d\n", len(m.Notices), len(m.Images)))
	s.WriteString(fmt.Sprintf("Live: %s\n", m.State))
	s.WriteString("\nq:quit r:refresh ?:help")
	return s.String()
}

func (m Model) renderHelp() string {
	help := `
PORTAL - Key Bindings

NAVIGATION:
  1-9               Follow a nav link
  Tab / Shift+Tab   Next / previous page
  g                 Gallery
  ↑ / ↓ / j / k     Select row
  Enter             Open notice details
  Esc               Close details

ACTIONS:
  r                 Refresh news and gallery
  R                 Reconnect the live channel after it failed
  f                 Toggle footer
  q / Ctrl+C        Quit

Press ? to close help
`
	return helpStyle.Render(help)
}

// bodyHeight is the height left for the page between header and footer.
func (m Model) bodyHeight() int {
	h := m.Height - 2 - 1
	if m.ShowFooter {
		h -= lipgloss.Height(RenderFooter(m.Width))
	}
	return max(h, 3)
}

func (m Model) renderBody() string {
	height := m.bodyHeight()

	if m.Detail != nil {
		return m.wrapPanel("NOTICE", m.viewport.View(), m.Width, height)
	}

	switch m.Route {
	case RouteHome:
		return m.renderHome(height)
	case RouteNotice:
		return m.wrapPanel("NOTICES", m.renderNotices(height-3, true), m.Width, height)
	case RouteGallery:
		return m.wrapPanel("GALLERY", m.renderImages(height-3, true), m.Width, height)
	case RouteAbout:
		return m.wrapPanel("ABOUT", aboutText, m.Width, height)
	default:
		return m.renderStatic(height)
	}
}

func (m Model) renderHome(height int) string {
	if m.Width < 2*MinWidth {
		newsH := height / 2
		return lipgloss.JoinVertical(lipgloss.Left,
			m.wrapPanel("LATEST NEWS", m.renderNotices(newsH-3, false), m.Width, newsH),
			m.wrapPanel("GALLERY", m.renderImages(height-newsH-3, false), m.Width, height-newsH),
		)
	}
	left := m.Width / 2
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.wrapPanel("LATEST NEWS", m.renderNotices(height-3, false), left, height),
		m.wrapPanel("GALLERY", m.renderImages(height-3, false), m.Width-left, height),
	)
}

func (m Model) renderNotices(lines int, selectable bool) string {
	if !m.Loaded && m.news.Loading() {
		return m.spinner.View() + " Loading notices..."
	}
	if len(m.Notices) == 0 {
		return subtleStyle.Render("No notices yet")
	}
	cursor := m.Cursor[RouteNotice]
	start := windowStart(cursor, len(m.Notices), lines, selectable)

	var b strings.Builder
	for i := start; i < len(m.Notices) && i < start+lines; i++ {
		n := &m.Notices[i]
		line := output.FormatPriority(n.Priority) + " " + n.Title
		if n.PdfFile != nil {
			line += " " + subtleStyle.Render("[pdf]")
		}
		if selectable && i == cursor {
			line = selectedRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderImages(lines int, selectable bool) string {
	if !m.Loaded && m.gallery.Loading() {
		return m.spinner.View() + " Loading gallery..."
	}
	if len(m.Images) == 0 {
		return subtleStyle.Render("No images yet")
	}
	cursor := m.Cursor[RouteGallery]
	start := windowStart(cursor, len(m.Images), lines, selectable)

	var b strings.Builder
	for i := start; i < len(m.Images) && i < start+lines; i++ {
		img := &m.Images[i]
		title := img.Title
		if title == "" {
			title = "(untitled)"
		}
		var line string
		switch {
		case img.IsPlaceholder():
			line = pendingStyle.Render(title + " (uploading)")
		case selectable:
			line = title + "  " + subtleStyle.Render(img.ImageURL)
		default:
			line = title
		}
		if selectable && i == cursor {
			line = selectedRowStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderStatic(height int) string {
	title, ok := pageTitles[m.Route]
	if !ok {
		title = "Page"
	}
	body := fmt.Sprintf("%s\n\n%s %s", titleStyle.Render(title), subtleStyle.Render("route:"), m.Route)
	return m.wrapPanel(strings.ToUpper(title), body, m.Width, height)
}

func (m Model) renderDetail(n *models.Notice) string {
	width := max(m.Width-6, 20)
	rendered, err := output.RenderNotice(n, width)
	if err != nil || rendered == "" {
		return output.FormatNoticeLong(n)
	}
	return rendered
}

func (m Model) renderStatus() string {
	state := m.State.String()
	live := "live: " + output.FormatState(state)
	if m.live == nil {
		live = subtleStyle.Render("live: off")
	} else if m.State == socket.StateFailed {
		live += subtleStyle.Render(" (R to reconnect)")
	}

	keys := helpStyle.Render("q:quit  tab:page  enter:open  r:refresh  ?:help")
	msg := ""
	switch {
	case m.Err != nil:
		msg = errorStyle.Render(m.Err.Error())
	case m.Message != "":
		msg = subtleStyle.Render(m.Message)
	case m.Loaded && m.loading():
		msg = m.spinner.View()
	}

	right := live
	if m.version != "" {
		right += subtleStyle.Render("  " + m.version)
	}
	padding := m.Width - lipgloss.Width(keys) - lipgloss.Width(msg) - lipgloss.Width(right) - 3
	if padding < 0 {
		padding = 0
	}
	return truncate(fmt.Sprintf(" %s %s%s%s", keys, msg, strings.Repeat(" ", padding), right), m.Width)
}

// wrapPanel wraps content in a panel with title and border
func (m Model) wrapPanel(title, content string, width, height int) string {
	titleStr := panelTitleStyle.Render(title)
	contentWidth := width - 4 // Account for border and padding
	contentHeight := height - 3

	lines := strings.Split(content, "\n")
	for len(lines) < contentHeight {
		lines = append(lines, "")
	}
	if contentHeight >= 0 && len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}
	for i, line := range lines {
		lines[i] = truncate(line, contentWidth)
	}

	inner := lipgloss.JoinVertical(lipgloss.Left, titleStr, strings.Join(lines, "\n"))
	return panelStyle.Width(max(width-2, 0)).Render(inner)
}

// windowStart keeps the cursor visible in a list of total rows shown lines
// at a time.
func windowStart(cursor, total, lines int, follow bool) int {
	if !follow || lines <= 0 || cursor < lines {
		return 0
	}
	start := cursor - lines + 1
	if start > total-lines {
		start = max(total-lines, 0)
	}
	return start
}
