package cmd

import (
	"context"
	"fmt"

	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/jamalpur-chamber/chamber/internal/pdf"
	"github.com/spf13/cobra"
)

var pdfCmd = &cobra.Command{
	Use:     "pdf",
	Short:   "Download, view or print a notice's PDF attachment",
	GroupID: "content",
}

type pdfAction func(h *pdf.Handler, ctx context.Context, ref *models.PdfFile, sink pdf.Sink) bool

func pdfCommand(use, short string, action pdfAction, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <notice-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			n, _, ok := a.notices.Find(ctx, args[0])
			if !ok {
				err := fmt.Errorf("%w: %s", errNoticeNotFound, args[0])
				output.Error("%v", err)
				return err
			}
			if n.PdfFile == nil {
				err := fmt.Errorf("notice %s has no PDF attachment", args[0])
				output.Error("%v", err)
				return err
			}

			handler, sink, err := a.pdfHandler()
			if err != nil {
				output.Error("%v", err)
				return err
			}
			if !action(handler, ctx, n.PdfFile, sink) {
				err := fmt.Errorf("could not %s PDF for notice %s", use, args[0])
				output.Error("%v", err)
				return err
			}

			if sink.Saved != "" {
				output.Success("%s %s", done, sink.Saved)
			} else {
				output.Success("%s %s", done, pdf.Filename(n.PdfFile))
			}
			return nil
		},
	}
}

func init() {
	pdfCmd.AddCommand(
		pdfCommand("download", "Save the PDF to the download directory", (*pdf.Handler).Download, "Saved"),
		pdfCommand("view", "Open the PDF in the system viewer", (*pdf.Handler).View, "Opened"),
		pdfCommand("print", "Open and print the PDF", (*pdf.Handler).Print, "Sent to printer:"),
	)
	rootCmd.AddCommand(pdfCmd)
}
