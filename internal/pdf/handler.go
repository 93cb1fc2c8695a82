// Package pdf resolves notice attachments into download, view and print
// actions. Attachments may live on the asset CDN, on the API's legacy file
// endpoint, or inline as a base64 data URL.
package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// Sink performs the side effects of an action.
type Sink interface {
	// SaveBlob stores fetched content under filename.
	SaveBlob(ctx context.Context, filename string, body io.Reader) error
	// SaveLink saves the target of a direct link (http(s) or data URL).
	SaveLink(ctx context.Context, link, filename string) error
	// Open shows the document in a new viewer.
	Open(ctx context.Context, link string) error
	// Print opens the document and prints it.
	Print(ctx context.Context, link string) error
}

// Target is a resolved reference.
type Target struct {
	Kind     models.PdfKind
	URL      string
	Filename string
}

// Handler resolves references against an API base.
type Handler struct {
	apiBase string
	http    *http.Client
	log     *slog.Logger
}

// NewHandler creates a handler. A nil client uses http.DefaultClient.
func NewHandler(apiBase string, client *http.Client, logger *slog.Logger) *Handler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Handler{
		apiBase: strings.TrimRight(apiBase, "/"),
		http:    client,
		log:     logging.OrDiscard(logger),
	}
}

// Resolve probes ref in priority order. ok is false when no shape matches.
func (h *Handler) Resolve(ref *models.PdfFile) (Target, bool) {
	t := Target{Kind: ref.Kind(), Filename: Filename(ref)}
	switch t.Kind {
	case models.PdfCloud:
		t.URL = NormalizeURL(ref)
	case models.PdfLegacy:
		t.URL = apiclient.FileURL(h.apiBase, ref.LegacyID())
	case models.PdfInline:
		t.URL = ref.Data
	default:
		return Target{}, false
	}
	return t, true
}

// Download saves the document. Remote documents are fetched first and fall
// back to a direct link when the fetch fails.
func (h *Handler) Download(ctx context.Context, ref *models.PdfFile, sink Sink) bool {
	t, ok := h.Resolve(ref)
	if !ok {
		h.log.Warn("no valid pdf reference")
		return false
	}

	if t.Kind == models.PdfInline {
		if err := sink.SaveLink(ctx, t.URL, t.Filename); err != nil {
			h.log.Error("save inline pdf", "err", err)
			return false
		}
		return true
	}

	if err := h.fetchTo(ctx, t, sink); err != nil {
		h.log.Warn("fetch pdf failed, using direct link", "url", t.URL, "err", err)
		if err := sink.SaveLink(ctx, t.URL, t.Filename); err != nil {
			h.log.Error("direct link download", "url", t.URL, "err", err)
			return false
		}
	}
	return true
}

func (h *Handler) fetchTo(ctx context.Context, t Target, sink Sink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return sink.SaveBlob(ctx, t.Filename, resp.Body)
}

// View opens the document without fetching it.
func (h *Handler) View(ctx context.Context, ref *models.PdfFile, sink Sink) bool {
	t, ok := h.Resolve(ref)
	if !ok {
		h.log.Warn("no valid pdf reference")
		return false
	}
	if err := sink.Open(ctx, t.URL); err != nil {
		h.log.Error("open pdf", "url", t.URL, "err", err)
		return false
	}
	return true
}

// Print opens the document and prints it.
func (h *Handler) Print(ctx context.Context, ref *models.PdfFile, sink Sink) bool {
	t, ok := h.Resolve(ref)
	if !ok {
		h.log.Warn("no valid pdf reference")
		return false
	}
	if err := sink.Print(ctx, t.URL); err != nil {
		h.log.Error("print pdf", "url", t.URL, "err", err)
		return false
	}
	return true
}
