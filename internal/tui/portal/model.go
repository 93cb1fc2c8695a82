// Package portal is the full-screen terminal view of the chamber portal:
// header navigation, live news and gallery panels, notice details and the
// footer.
package portal

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamalpur-chamber/chamber/internal/feed"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/socket"
	"golang.org/x/sync/errgroup"
)

// Routes outside the nav bar.
const (
	RouteHome    = "/"
	RouteAbout   = "/about"
	RouteNotice  = "/notice"
	RouteGallery = "/gallery"
)

// MinWidth is the minimum terminal width for proper display
const MinWidth = 40

// MinHeight is the minimum terminal height for proper display
const MinHeight = 15

// LiveChannel is the connection the status line reports on.
// *socket.Manager satisfies it.
type LiveChannel interface {
	State() socket.State
	OnStateChange(fn func(socket.State)) (off func())
	Reconnect(ctx context.Context)
}

// Options wires the model to its data.
type Options struct {
	Context context.Context
	News    *feed.News
	Gallery *feed.Gallery
	Live    LiveChannel
	User    *models.User
	Logout  func() error
	Version string
}

// Model is the main Bubble Tea model for the portal TUI
type Model struct {
	ctx     context.Context
	news    *feed.News
	gallery *feed.Gallery
	live    LiveChannel
	logout  func() error
	version string

	newsCh    <-chan struct{}
	galleryCh <-chan struct{}
	stateCh   chan socket.State
	unsub     []func()

	// Window dimensions
	Width  int
	Height int

	// View state
	User       *models.User
	Route      string
	Cursor     map[string]int
	Detail     *models.Notice
	ShowHelp   bool
	ShowFooter bool
	State      socket.State
	Loaded     bool
	Message    string
	Err        error

	spinner  spinner.Model
	viewport viewport.Model

	Notices []models.Notice
	Images  []models.GalleryImage
}

// feedMsg signals a change in one of the feeds.
type feedMsg struct{ gallery bool }

// stateMsg carries a live channel transition.
type stateMsg socket.State

// loadedMsg ends the initial load.
type loadedMsg struct{}

// logoutMsg reports the logout result.
type logoutMsg struct{ err error }

// NewModel creates a new portal model
func NewModel(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	m := Model{
		ctx:        ctx,
		news:       opts.News,
		gallery:    opts.Gallery,
		live:       opts.Live,
		logout:     opts.Logout,
		version:    opts.Version,
		stateCh:    make(chan socket.State, 8),
		User:       opts.User,
		Route:      RouteHome,
		Cursor:     make(map[string]int),
		ShowFooter: true,
		spinner:    sp,
		viewport:   viewport.New(0, 0),
	}

	var off func()
	m.newsCh, off = m.news.Subscribe()
	m.unsub = append(m.unsub, off)
	m.galleryCh, off = m.gallery.Subscribe()
	m.unsub = append(m.unsub, off)
	if m.live != nil {
		m.State = m.live.State()
		states := m.stateCh
		m.unsub = append(m.unsub, m.live.OnStateChange(func(s socket.State) {
			select {
			case states <- s:
			default:
			}
		}))
	}
	return m
}

// Close releases the feed and channel subscriptions.
func (m Model) Close() {
	for _, off := range m.unsub {
		off()
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.startFeeds(),
		waitForFeed(m.newsCh, false),
		waitForFeed(m.galleryCh, true),
		m.waitForState(),
	)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resizeViewport()
		if m.Detail != nil {
			m.setDetail(m.Detail)
		}
		return m, nil

	case loadedMsg:
		m.Loaded = true
		m.syncFeeds()
		return m, nil

	case feedMsg:
		m.syncFeeds()
		if msg.gallery {
			return m, waitForFeed(m.galleryCh, true)
		}
		return m, waitForFeed(m.newsCh, false)

	case stateMsg:
		m.State = socket.State(msg)
		return m, m.waitForState()

	case logoutMsg:
		if msg.err != nil {
			m.Err = msg.err
			return m, nil
		}
		m.User = nil
		m.Route = RouteHome
		m.Message = "Logged out"
		return m, nil

	case spinner.TickMsg:
		if m.Loaded && !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes key input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.ShowHelp {
		if key == "?" || key == "esc" || key == "q" {
			m.ShowHelp = false
		}
		return m, nil
	}

	if m.Detail != nil {
		switch key {
		case "esc", "enter", "backspace":
			m.Detail = nil
			return m, nil
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab", "right", "l":
		return m.stepNav(1)

	case "shift+tab", "left", "h":
		return m.stepNav(-1)

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key[0] - '1')
		links := NavLinks(m.User)
		if idx < len(links) {
			return m.follow(links[idx])
		}
		return m, nil

	case "g":
		m.Route = RouteGallery
		return m, nil

	case "j", "down":
		if n := m.listLen(m.Route); n > 0 && m.Cursor[m.Route] < n-1 {
			m.Cursor[m.Route]++
		}
		return m, nil

	case "k", "up":
		if m.Cursor[m.Route] > 0 {
			m.Cursor[m.Route]--
		}
		return m, nil

	case "enter":
		if m.Route == RouteNotice && m.Cursor[RouteNotice] < len(m.Notices) {
			n := m.Notices[m.Cursor[RouteNotice]]
			m.setDetail(&n)
		}
		return m, nil

	case "r":
		m.Message = ""
		return m, tea.Batch(m.spinner.Tick, m.refreshFeeds())

	case "R":
		if m.live != nil && m.State == socket.StateFailed {
			live, ctx := m.live, m.ctx
			return m, func() tea.Msg {
				live.Reconnect(ctx)
				return nil
			}
		}
		return m, nil

	case "f":
		m.ShowFooter = !m.ShowFooter
		m.resizeViewport()
		return m, nil

	case "?":
		m.ShowHelp = true
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	return m.renderView()
}

func (m Model) stepNav(delta int) (tea.Model, tea.Cmd) {
	links := NavLinks(m.User)
	idx := 0
	for i, l := range links {
		if l.Path == m.Route {
			idx = i
			break
		}
	}
	next := (idx + delta + len(links)) % len(links)
	if links[next].Path == RouteLogout {
		next = (next + delta + len(links)) % len(links)
	}
	m.Route = links[next].Path
	return m, nil
}

func (m Model) follow(l Link) (tea.Model, tea.Cmd) {
	if l.Path != RouteLogout {
		m.Route = l.Path
		return m, nil
	}
	logout := m.logout
	if logout == nil {
		return m, func() tea.Msg { return logoutMsg{} }
	}
	return m, func() tea.Msg { return logoutMsg{err: logout()} }
}

func (m Model) listLen(route string) int {
	switch route {
	case RouteNotice:
		return len(m.Notices)
	case RouteGallery:
		return len(m.Images)
	}
	return 0
}

func (m Model) loading() bool {
	return m.news.Loading() || m.gallery.Loading()
}

func (m *Model) syncFeeds() {
	m.Notices = m.news.Items()
	m.Images = m.gallery.Items()
	for _, route := range []string{RouteNotice, RouteGallery} {
		if n := m.listLen(route); m.Cursor[route] >= n {
			m.Cursor[route] = max(n-1, 0)
		}
	}
}

func (m *Model) setDetail(n *models.Notice) {
	m.Detail = n
	m.resizeViewport()
	m.viewport.SetContent(m.renderDetail(n))
	m.viewport.GotoTop()
}

func (m *Model) resizeViewport() {
	m.viewport.Width = max(m.Width-4, 0)
	m.viewport.Height = max(m.bodyHeight()-3, 1)
}

// startFeeds runs both initial loads concurrently.
func (m Model) startFeeds() tea.Cmd {
	news, gallery, ctx := m.news, m.gallery, m.ctx
	return func() tea.Msg {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { news.Start(gctx); return nil })
		g.Go(func() error { gallery.Start(gctx); return nil })
		g.Wait()
		return loadedMsg{}
	}
}

func (m Model) refreshFeeds() tea.Cmd {
	news, gallery, ctx := m.news, m.gallery, m.ctx
	return func() tea.Msg {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { news.Refresh(gctx); return nil })
		g.Go(func() error { gallery.Refresh(gctx); return nil })
		g.Wait()
		return loadedMsg{}
	}
}

func waitForFeed(ch <-chan struct{}, gallery bool) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return feedMsg{gallery: gallery}
	}
}

func (m Model) waitForState() tea.Cmd {
	if m.live == nil {
		return nil
	}
	ch := m.stateCh
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}
