package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jamalpur-chamber/chamber/internal/feed"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/jamalpur-chamber/chamber/internal/tui/portal"
	"github.com/spf13/cobra"
)

var portalCmd = &cobra.Command{
	Use:     "portal",
	Aliases: []string{"ui"},
	Short:   "Full-screen portal with live news and gallery",
	Long: `Launch the full-screen portal:
- Header navigation and footer links
- Live news and gallery panels, updated as the portal publishes changes
- Notice details rendered as markdown

Key bindings:
  1-9            Follow a nav link
  Tab/Shift+Tab  Next/previous page
  g              Gallery
  ↑/↓ j/k        Select row
  Enter          Open notice details
  Esc            Close details
  r              Refresh
  R              Reconnect the live channel after it failed
  f              Toggle footer
  ?              Toggle help
  q              Quit`,
	GroupID: "portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		user, err := a.session.User(ctx)
		if err != nil {
			output.Warning("%v", err)
		}

		live := a.liveManager(ctx)
		defer live.Close()

		news := feed.NewNews(a.notices, live, logger)
		defer news.Close()
		gallery := feed.NewGallery(a.gallery, live, logger)
		defer gallery.Close()

		opts := portal.Options{
			Context: ctx,
			News:    news,
			Gallery: gallery,
			User:    user,
			Version: versionStr,
			Logout: func() error {
				if err := a.session.Clear(ctx); err != nil {
					return err
				}
				live.SetAdmin(false)
				return nil
			},
		}
		if live.Enabled() {
			opts.Live = live
		}
		model := portal.NewModel(opts)
		defer model.Close()

		live.Start(ctx)

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running portal: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portalCmd)
}
