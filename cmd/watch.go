package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jamalpur-chamber/chamber/internal/feed"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/jamalpur-chamber/chamber/internal/socket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Styles for watch output
var (
	createdMark = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("+")  // green
	updatedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Render("~")  // cyan
	deletedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("-") // red
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var liveEvents = []string{
	feed.EventNewsCreated, feed.EventNewsUpdated, feed.EventNewsDeleted,
	feed.EventImageCreated, feed.EventImageUpdated, feed.EventImageDeleted,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live notice and gallery changes",
	Long: `Show the latest notices and images, then print each change as the portal
publishes it. Stop with Ctrl+C.

Examples:
  chamber watch          # Show the 5 latest of each, then follow
  chamber watch -n 0     # Follow only new events
  chamber watch --json   # One JSON object per event`,
	GroupID: "portal",
	RunE: func(cmd *cobra.Command, args []string) error {
		lines, _ := cmd.Flags().GetInt("lines")
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		live := a.liveManager(ctx)
		defer live.Close()
		if !live.Enabled() {
			return fail(jsonOut, fmt.Errorf("live updates are disabled (CHAMBER_ENABLE_WEBSOCKET=false): %w", socket.ErrDisabled))
		}

		news := feed.NewNews(a.notices, live, logger)
		defer news.Close()
		gallery := feed.NewGallery(a.gallery, live, logger)
		defer gallery.Close()

		// Show initial entries
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { news.Start(gctx); return nil })
		g.Go(func() error { gallery.Start(gctx); return nil })
		_ = g.Wait()

		if lines > 0 && !jsonOut {
			printInitial(news.Items(), gallery.Items(), lines)
		}

		var mu sync.Mutex
		emit := func(line string) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Println(line)
		}

		for _, event := range liveEvents {
			off := live.On(event, func(payload json.RawMessage) {
				if jsonOut {
					data, _ := json.Marshal(map[string]interface{}{
						"ts":      time.Now().Format(time.RFC3339),
						"event":   event,
						"payload": payload,
					})
					emit(string(data))
					return
				}
				emit(formatEvent(time.Now(), event, payload))
			})
			defer off()
		}
		defer live.OnStateChange(func(s socket.State) {
			if jsonOut {
				return
			}
			line := fmt.Sprintf("%s live %s", dimStyle.Render(time.Now().Format("15:04:05")), output.FormatState(s.String()))
			if s == socket.StateFailed {
				line += dimStyle.Render(" (gave up reconnecting, restart watch to retry)")
			}
			emit(line)
		})()

		live.Start(ctx)
		<-ctx.Done()
		if !jsonOut {
			fmt.Println() // clean line after ^C
		}
		return nil
	},
}

func printInitial(notices []models.Notice, images []models.GalleryImage, lines int) {
	fmt.Println(output.SectionHeader("Latest notices"))
	if len(notices) == 0 {
		fmt.Println(dimStyle.Render("  none"))
	}
	for i := 0; i < len(notices) && i < lines; i++ {
		fmt.Println(output.IndentString(output.FormatNoticeShort(&notices[i]), 2))
	}
	fmt.Println(output.SectionHeader("Latest images"))
	if len(images) == 0 {
		fmt.Println(dimStyle.Render("  none"))
	}
	for i := 0; i < len(images) && i < lines; i++ {
		fmt.Println(output.IndentString(output.FormatImageShort(&images[i]), 2))
	}
	fmt.Println()
}

// formatEvent renders one live event as a line.
func formatEvent(now time.Time, event string, payload json.RawMessage) string {
	var mark string
	switch {
	case strings.HasSuffix(event, "-created"):
		mark = createdMark
	case strings.HasSuffix(event, "-updated"):
		mark = updatedMark
	default:
		mark = deletedMark
	}

	var rec struct {
		models.Identity
		Title string `json:"title"`
	}
	_ = json.Unmarshal(payload, &rec)

	kind := "notice"
	if strings.HasPrefix(event, "gallery-") {
		kind = "image"
	}
	line := fmt.Sprintf("%s %s %s %s", dimStyle.Render(now.Format("15:04:05")), mark, kind, truncateID(rec.Key(), 16))
	if rec.Title != "" {
		line += " " + rec.Title
	}
	return line
}

func truncateID(id string, max int) string {
	if id == "" {
		return "?"
	}
	if len(id) <= max {
		return id
	}
	return id[:max-3] + "..."
}

func init() {
	watchCmd.Flags().IntP("lines", "n", 5, "Number of initial notices and images to show")
	watchCmd.Flags().Bool("json", false, "Output events as JSONL")
	rootCmd.AddCommand(watchCmd)
}
