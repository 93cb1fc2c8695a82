package feed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/notices"
)

// NoticeLoader fetches the notice list. *notices.Service satisfies it.
type NoticeLoader interface {
	List(ctx context.Context) ([]models.Notice, notices.Source)
}

// News is the live notice list.
type News struct {
	*Store[models.Notice]

	loader NoticeLoader
	live   *live
	log    *slog.Logger
}

// NewNews creates a news feed. events may be nil for a REST-only feed.
func NewNews(loader NoticeLoader, events Events, logger *slog.Logger) *News {
	n := &News{
		Store:  NewStore[models.Notice](),
		loader: loader,
		log:    logging.OrDiscard(logger).With("feed", "news"),
	}
	n.live = &live{
		events: events,
		log:    n.log,
		bindings: []binding{
			{EventNewsCreated, n.onCreated},
			{EventNewsUpdated, n.onUpdated},
			{EventNewsDeleted, n.onDeleted},
		},
	}
	return n
}

// Start subscribes to the live channel and runs the initial load.
func (n *News) Start(ctx context.Context) {
	n.live.start()
	n.Refresh(ctx)
}

// Refresh reloads the list from the loader.
func (n *News) Refresh(ctx context.Context) {
	n.setLoading(true)
	defer n.setLoading(false)
	items, src := n.loader.List(ctx)
	n.log.Debug("news loaded", "count", len(items), "source", src.String())
	n.Replace(items)
}

// Close releases every live handler.
func (n *News) Close() {
	n.live.close()
}

func (n *News) onCreated(payload json.RawMessage) {
	var notice models.Notice
	if err := json.Unmarshal(payload, &notice); err != nil {
		n.log.Debug("ignore news-created", "err", err)
		return
	}
	n.Update(PrependNotice(notice))
}

func (n *News) onUpdated(payload json.RawMessage) {
	var id models.Identity
	if err := json.Unmarshal(payload, &id); err != nil || id.IsZero() {
		n.log.Debug("ignore news-updated", "err", err)
		return
	}
	n.Update(MergeNotice(id, payload))
}

func (n *News) onDeleted(payload json.RawMessage) {
	var id models.Identity
	if err := json.Unmarshal(payload, &id); err != nil || id.IsZero() {
		n.log.Debug("ignore news-deleted", "err", err)
		return
	}
	n.Update(RemoveNotice(id))
}
