// Package gallery wraps the gallery endpoints. It keeps no local state.
package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// ErrInvalidImageID is returned for ids that were never persisted.
var ErrInvalidImageID = errors.New("invalid image id")

// API is the subset of the REST client the service uses.
type API interface {
	ListGallery(ctx context.Context) ([]json.RawMessage, error)
	UploadImage(ctx context.Context, token string, up apiclient.GalleryUpload) (*apiclient.Response, error)
	DeleteImage(ctx context.Context, token, id string) (*apiclient.Response, error)
}

// TokenSource yields the stored bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Service is the gallery service.
type Service struct {
	api    API
	tokens TokenSource
	log    *slog.Logger
}

// NewService creates a gallery service.
func NewService(api API, tokens TokenSource, logger *slog.Logger) *Service {
	return &Service{api: api, tokens: tokens, log: logging.OrDiscard(logger)}
}

// List returns the images with a usable http(s) URL. Failures yield an empty
// slice.
func (s *Service) List(ctx context.Context) []models.GalleryImage {
	entries, err := s.api.ListGallery(ctx)
	if err != nil {
		s.log.Debug("fetch gallery failed", "err", err)
		return []models.GalleryImage{}
	}
	return FilterValid(entries)
}

// FilterValid decodes each entry on its own and keeps those with a valid
// imageUrl.
func FilterValid(entries []json.RawMessage) []models.GalleryImage {
	images := make([]models.GalleryImage, 0, len(entries))
	for _, raw := range entries {
		var img models.GalleryImage
		if err := json.Unmarshal(raw, &img); err != nil {
			continue
		}
		if !models.ValidImageURL(img.ImageURL) {
			continue
		}
		images = append(images, img)
	}
	return images
}

// Upload posts a new image.
func (s *Service) Upload(ctx context.Context, up apiclient.GalleryUpload) (*apiclient.Response, error) {
	if up.Image == nil || up.Image.Body == nil {
		return nil, fmt.Errorf("upload image: no image attached")
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.UploadImage(ctx, token, up)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return resp, nil
}

// Delete removes image id. Placeholder ids are rejected before any request.
func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Response, error) {
	if id == "" || strings.HasPrefix(id, models.TempIDPrefix) {
		return nil, ErrInvalidImageID
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.DeleteImage(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("delete image: %w", err)
	}
	return resp, nil
}
