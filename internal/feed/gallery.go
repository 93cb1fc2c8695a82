package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// ImageLoader fetches the gallery. *gallery.Service satisfies it.
type ImageLoader interface {
	List(ctx context.Context) []models.GalleryImage
}

// Uploader posts a gallery image. *gallery.Service satisfies it.
type Uploader interface {
	Upload(ctx context.Context, up apiclient.GalleryUpload) (*apiclient.Response, error)
}

// Gallery is the live image list.
type Gallery struct {
	*Store[models.GalleryImage]

	loader ImageLoader
	events Events
	live   *live
	log    *slog.Logger
}

// NewGallery creates a gallery feed. events may be nil for a REST-only feed.
func NewGallery(loader ImageLoader, events Events, logger *slog.Logger) *Gallery {
	g := &Gallery{
		Store:  NewStore[models.GalleryImage](),
		loader: loader,
		events: events,
		log:    logging.OrDiscard(logger).With("feed", "gallery"),
	}
	g.live = &live{
		events: events,
		log:    g.log,
		bindings: []binding{
			{EventImageCreated, g.onCreated},
			{EventImageUpdated, g.onUpdated},
			{EventImageDeleted, g.onDeleted},
		},
	}
	return g
}

// Start subscribes to the live channel and runs the initial load.
func (g *Gallery) Start(ctx context.Context) {
	g.live.start()
	g.Refresh(ctx)
}

// Refresh reloads the list from the loader.
func (g *Gallery) Refresh(ctx context.Context) {
	g.setLoading(true)
	defer g.setLoading(false)
	items := g.loader.List(ctx)
	g.log.Debug("gallery loaded", "count", len(items))
	g.Replace(items)
}

// Close releases every live handler.
func (g *Gallery) Close() {
	g.live.close()
}

// NewPlaceholder builds a client-only image with a temp- id.
func NewPlaceholder(title, description, imageURL string) models.GalleryImage {
	return models.GalleryImage{
		Identity:     models.Identity{ID: models.TempIDPrefix + uuid.NewString()},
		Title:        title,
		Description:  description,
		ImageURL:     imageURL,
		IsOptimistic: true,
	}
}

// AddOptimistic shows img before the server confirms it.
func (g *Gallery) AddOptimistic(img models.GalleryImage) {
	g.Update(AddOptimistic(img))
}

// RemoveOptimistic drops the placeholder with the given id.
func (g *Gallery) RemoveOptimistic(id string) {
	g.Update(RemoveByID(id))
}

// UploadOptimistic inserts a placeholder, uploads, and then either rolls the
// placeholder back or reconciles the created image. While the live channel
// is up the created event does the reconciling.
func (g *Gallery) UploadOptimistic(ctx context.Context, svc Uploader, up apiclient.GalleryUpload, previewURL string) (*apiclient.Response, error) {
	placeholder := NewPlaceholder(up.Title, up.Description, previewURL)
	g.AddOptimistic(placeholder)

	resp, err := svc.Upload(ctx, up)
	if err != nil {
		g.RemoveOptimistic(placeholder.ID)
		return nil, err
	}

	if g.events != nil && g.events.Connected() {
		return resp, nil
	}
	var created models.GalleryImage
	if err := resp.Decode("image", &created); err != nil || created.IsZero() || !models.ValidImageURL(created.ImageURL) {
		g.log.Debug("upload response carries no image, reloading", "err", err)
		g.RemoveOptimistic(placeholder.ID)
		g.Refresh(ctx)
		return resp, nil
	}
	g.Update(ReconcileCreated(created))
	return resp, nil
}

func (g *Gallery) onCreated(payload json.RawMessage) {
	var img models.GalleryImage
	if err := json.Unmarshal(payload, &img); err != nil || !models.ValidImageURL(img.ImageURL) {
		g.log.Debug("ignore gallery-image-created", "err", err)
		return
	}
	g.Update(ReconcileCreated(img))
}

func (g *Gallery) onUpdated(payload json.RawMessage) {
	var img models.GalleryImage
	if err := json.Unmarshal(payload, &img); err != nil || !models.ValidImageURL(img.ImageURL) || img.IsZero() {
		g.log.Debug("ignore gallery-image-updated", "err", err)
		return
	}
	g.Update(MergeImage(img.Identity, payload))
}

func (g *Gallery) onDeleted(payload json.RawMessage) {
	var id models.Identity
	if err := json.Unmarshal(payload, &id); err != nil || id.IsZero() {
		g.log.Debug("ignore gallery-image-deleted", "err", err)
		return
	}
	g.Update(RemoveImage(id))
}
