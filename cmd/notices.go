package cmd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/notices"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var errNoticeNotFound = errors.New("notice not found")

// priorityValue is a pflag.Value restricted to the notice priorities.
type priorityValue struct {
	p models.Priority
}

var _ pflag.Value = (*priorityValue)(nil)

func (v *priorityValue) String() string { return string(v.p) }
func (v *priorityValue) Type() string   { return "priority" }

func (v *priorityValue) Set(s string) error {
	p, ok := models.ParsePriority(s)
	if !ok {
		return fmt.Errorf("invalid priority %q (want low, normal, high or urgent)", s)
	}
	v.p = p
	return nil
}

var noticesCmd = &cobra.Command{
	Use:     "notices",
	Aliases: []string{"notice", "news"},
	Short:   "List, read and manage notices",
	GroupID: "content",
}

var noticesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notices (falls back to the local cache when offline)",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		limit, _ := cmd.Flags().GetInt("limit")
		minPriority, _ := cmd.Flags().GetString("priority")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		list, src := a.notices.List(cmd.Context())
		if minPriority != "" {
			p, ok := models.ParsePriority(minPriority)
			if !ok {
				return fail(jsonOut, fmt.Errorf("%w: unknown priority %q", notices.ErrInvalidInput, minPriority))
			}
			list = filterPriority(list, p)
		}
		if limit > 0 && len(list) > limit {
			list = list[:limit]
		}

		if jsonOut {
			return output.JSON(map[string]interface{}{
				"source":  src.String(),
				"notices": list,
			})
		}

		switch src {
		case notices.SourceCache:
			output.Warning("offline, showing cached notices")
		case notices.SourceEmpty:
			output.Warning("could not reach the portal and no cached notices are available")
		}
		if len(list) == 0 {
			fmt.Println("No notices")
			return nil
		}
		for i := range list {
			fmt.Println(output.FormatNoticeShort(&list[i]))
		}
		return nil
	},
}

var noticesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a notice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		raw, _ := cmd.Flags().GetBool("raw")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		n, _, ok := a.notices.Find(cmd.Context(), args[0])
		if !ok {
			return fail(jsonOut, fmt.Errorf("%w: %s", errNoticeNotFound, args[0]))
		}
		if jsonOut {
			return output.JSON(n)
		}
		if !raw {
			if rendered, err := output.RenderNotice(n, output.TerminalWidth(80)); err == nil {
				fmt.Print(rendered)
				return nil
			}
		}
		fmt.Println(output.FormatNoticeLong(n))
		return nil
	},
}

var noticesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a notice (admin)",
	Long: `Create a notice. Without --title and --content an interactive form is shown
when running in a terminal.`,
	Example: `  chamber notices create --title "AGM" --content "Friday 4pm" --priority high
  chamber notices create --title "Fees" --content "See attached" --pdf fees.pdf`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNoticeMutation(cmd, "")
	},
}

var noticesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replace a notice (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNoticeMutation(cmd, args[0])
	},
}

var noticesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a notice (admin)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.requireLogin(ctx); err != nil {
			return fail(jsonOut, err)
		}
		resp, err := a.notices.Delete(ctx, args[0])
		if err != nil {
			return fail(jsonOut, err)
		}
		if jsonOut {
			return output.JSON(map[string]interface{}{"deleted": args[0], "message": resp.Message})
		}
		output.Success("Deleted notice %s", args[0])
		return nil
	},
}

var noticesCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the offline notice cache",
}

var noticesCacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached notice entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		st := a.notices.CacheStatus(cmd.Context())
		if jsonOut {
			return output.JSON(map[string]interface{}{
				"present":     st.Present,
				"valid":       st.Valid,
				"count":       st.Count,
				"age_seconds": int(st.Age.Seconds()),
			})
		}
		if !st.Present {
			fmt.Println("No cached notices")
			return nil
		}
		state := "valid"
		if !st.Valid {
			state = "expired"
		}
		fmt.Printf("%d notices cached %s ago (%s)\n", st.Count, output.FormatAge(st.Age), state)
		return nil
	},
}

var noticesCacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the cached notice entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			output.Error("%v", err)
			return err
		}
		defer a.Close()

		a.notices.ClearCache(cmd.Context())
		output.Success("Cleared notice cache")
		return nil
	},
}

func runNoticeMutation(cmd *cobra.Command, id string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	title, _ := cmd.Flags().GetString("title")
	content, _ := cmd.Flags().GetString("content")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	priority := cmd.Flags().Lookup("priority").Value.(*priorityValue)

	if (title == "" || content == "") && useForms() && !jsonOut {
		p := string(priority.p)
		if p == "" {
			p = string(models.PriorityNormal)
		}
		options := make([]huh.Option[string], 0, len(models.Priorities))
		for _, pr := range models.Priorities {
			options = append(options, huh.NewOption(strings.ToUpper(string(pr[:1]))+string(pr[1:]), string(pr)))
		}
		heading := "New Notice"
		if id != "" {
			heading = "Edit Notice: " + id
		}
		err := runForm(huh.NewGroup(
			huh.NewInput().Title("Title").Value(&title).Placeholder("Notice title...").Validate(notEmpty("title")),
			huh.NewSelect[string]().Title("Priority").Options(options...).Value(&p),
			huh.NewText().Title("Content").Value(&content).Lines(5).Validate(notEmpty("content")),
			huh.NewInput().Title("PDF attachment").Value(&pdfPath).Placeholder("optional path to a .pdf"),
		).Title(heading))
		if err != nil {
			return err
		}
		priority.p = models.Priority(p)
	}

	a, err := openApp()
	if err != nil {
		return fail(jsonOut, err)
	}
	defer a.Close()

	ctx := cmd.Context()
	if err := a.requireLogin(ctx); err != nil {
		return fail(jsonOut, err)
	}

	in := notices.Input{
		Title:    strings.TrimSpace(title),
		Content:  content,
		Priority: priority.p,
	}
	if pdfPath = strings.TrimSpace(pdfPath); pdfPath != "" {
		f, err := os.Open(pdfPath)
		if err != nil {
			return fail(jsonOut, fmt.Errorf("%w: %v", notices.ErrInvalidInput, err))
		}
		defer f.Close()
		in.PdfFile = attachment(f, pdfPath)
	}

	var resp *apiclient.Response
	if id == "" {
		resp, err = a.notices.Create(ctx, in)
	} else {
		resp, err = a.notices.Update(ctx, id, in)
	}
	if err != nil {
		return fail(jsonOut, err)
	}

	var saved models.Notice
	decoded := resp.Decode("notice", &saved) == nil && !saved.IsZero()
	if jsonOut {
		if decoded {
			return output.JSON(saved)
		}
		return output.JSON(map[string]interface{}{"message": resp.Message})
	}
	verb := "Created"
	if id != "" {
		verb = "Updated"
	}
	if decoded {
		output.Success("%s notice %s", verb, saved.Key())
	} else {
		output.Success("%s notice", verb)
	}
	return nil
}

// attachment wraps an open file as a multipart part.
func attachment(f *os.File, path string) *apiclient.Attachment {
	ctype := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	return &apiclient.Attachment{Name: filepath.Base(path), ContentType: ctype, Body: f}
}

// filterPriority keeps notices at or above min.
func filterPriority(list []models.Notice, min models.Priority) []models.Notice {
	rank := func(p models.Priority) int {
		for i, pr := range models.Priorities {
			if pr == p {
				return i
			}
		}
		return 1
	}
	var out []models.Notice
	for _, n := range list {
		if rank(n.Priority) >= rank(min) {
			out = append(out, n)
		}
	}
	return out
}

func init() {
	for _, c := range []*cobra.Command{noticesListCmd, noticesShowCmd, noticesCreateCmd, noticesUpdateCmd, noticesDeleteCmd, noticesCacheStatusCmd} {
		c.Flags().Bool("json", false, "JSON output")
	}
	noticesListCmd.Flags().IntP("limit", "n", 0, "Show at most n notices")
	noticesListCmd.Flags().String("priority", "", "Only notices at or above this priority")
	noticesShowCmd.Flags().Bool("raw", false, "Plain text instead of rendered markdown")

	for _, c := range []*cobra.Command{noticesCreateCmd, noticesUpdateCmd} {
		c.Flags().String("title", "", "Notice title")
		c.Flags().String("content", "", "Notice content (markdown)")
		c.Flags().Var(&priorityValue{}, "priority", "Priority: low, normal, high, urgent (default normal)")
		c.Flags().String("pdf", "", "Path to a PDF to attach")
	}

	noticesCacheCmd.AddCommand(noticesCacheStatusCmd, noticesCacheClearCmd)
	noticesCmd.AddCommand(noticesListCmd, noticesShowCmd, noticesCreateCmd, noticesUpdateCmd, noticesDeleteCmd, noticesCacheCmd)
	rootCmd.AddCommand(noticesCmd)
}
