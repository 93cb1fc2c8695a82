package feed

import (
	"encoding/json"

	"github.com/jamalpur-chamber/chamber/internal/models"
)

// record is any list element carrying an identity.
type record interface {
	Identifier() models.Identity
}

func prepend[T any](item T) func([]T) []T {
	return func(prev []T) []T {
		return append([]T{item}, prev...)
	}
}

func remove[T record](id models.Identity) func([]T) []T {
	return func(prev []T) []T {
		out := prev[:0]
		for _, it := range prev {
			if !models.SameIdentity(it.Identifier(), id) {
				out = append(out, it)
			}
		}
		return out
	}
}

// mergeFirst applies merge to the first element matching id. No match leaves
// the list unchanged.
func mergeFirst[T record](id models.Identity, merge func(T) (T, error)) func([]T) []T {
	return func(prev []T) []T {
		for i, it := range prev {
			if !models.SameIdentity(it.Identifier(), id) {
				continue
			}
			if merged, err := merge(it); err == nil {
				prev[i] = merged
			}
			break
		}
		return prev
	}
}

// PrependNotice puts n at the head of the list.
func PrependNotice(n models.Notice) func([]models.Notice) []models.Notice {
	return prepend(n)
}

// MergeNotice shallow-merges patch over the notice matching id.
func MergeNotice(id models.Identity, patch json.RawMessage) func([]models.Notice) []models.Notice {
	return mergeFirst(id, func(n models.Notice) (models.Notice, error) {
		return n.Merge(patch)
	})
}

// RemoveNotice drops every notice matching id.
func RemoveNotice(id models.Identity) func([]models.Notice) []models.Notice {
	return remove[models.Notice](id)
}

// ReconcileCreated folds a confirmed image into the list: placeholders with
// the same title and description are dropped, and img is prepended unless a
// record with its identity is already present.
func ReconcileCreated(img models.GalleryImage) func([]models.GalleryImage) []models.GalleryImage {
	return func(prev []models.GalleryImage) []models.GalleryImage {
		out := make([]models.GalleryImage, 0, len(prev)+1)
		exists := false
		for _, it := range prev {
			if it.IsPlaceholder() && it.Title == img.Title && it.Description == img.Description {
				continue
			}
			if models.SameIdentity(it.Identity, img.Identity) {
				exists = true
			}
			out = append(out, it)
		}
		if exists {
			return out
		}
		return append([]models.GalleryImage{img}, out...)
	}
}

// MergeImage shallow-merges patch over the image matching id.
func MergeImage(id models.Identity, patch json.RawMessage) func([]models.GalleryImage) []models.GalleryImage {
	return mergeFirst(id, func(img models.GalleryImage) (models.GalleryImage, error) {
		return img.Merge(patch)
	})
}

// RemoveImage drops every image matching id.
func RemoveImage(id models.Identity) func([]models.GalleryImage) []models.GalleryImage {
	return remove[models.GalleryImage](id)
}

// AddOptimistic prepends img flagged as a placeholder.
func AddOptimistic(img models.GalleryImage) func([]models.GalleryImage) []models.GalleryImage {
	img.IsOptimistic = true
	return prepend(img)
}

// RemoveByID drops images whose id or _id equals id.
func RemoveByID(id string) func([]models.GalleryImage) []models.GalleryImage {
	return remove[models.GalleryImage](models.Identity{ID: id})
}
