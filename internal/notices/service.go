// Package notices fetches and mutates portal notices, keeping a short-lived
// local copy of the last successful list for offline use.
package notices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/kvstore"
	"github.com/jamalpur-chamber/chamber/internal/logging"
	"github.com/jamalpur-chamber/chamber/internal/models"
)

// ErrInvalidInput wraps client-side validation failures.
var ErrInvalidInput = errors.New("invalid notice")

// API is the subset of the REST client the service uses.
type API interface {
	ListNotices(ctx context.Context) (json.RawMessage, error)
	CreateNotice(ctx context.Context, token string, form apiclient.NoticeForm) (*apiclient.Response, error)
	UpdateNotice(ctx context.Context, token, id string, form apiclient.NoticeForm) (*apiclient.Response, error)
	DeleteNotice(ctx context.Context, token, id string) (*apiclient.Response, error)
}

// TokenSource yields the stored bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Source tells where a List result came from.
type Source int

const (
	SourceEmpty Source = iota
	SourceNetwork
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceNetwork:
		return "network"
	case SourceCache:
		return "cache"
	default:
		return "empty"
	}
}

// Input is a notice to create or update.
type Input struct {
	Title    string                `validate:"required"`
	Content  string                `validate:"required"`
	Priority models.Priority       `validate:"omitempty,oneof=low normal high urgent"`
	PdfFile  *apiclient.Attachment `validate:"-"`
}

// Service is the notice cache service.
type Service struct {
	api      API
	store    kvstore.Store
	tokens   TokenSource
	log      *slog.Logger
	validate *validator.Validate
	timeout  time.Duration
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithCacheTimeout overrides DefaultCacheTimeout.
func WithCacheTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger for background cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = logging.OrDiscard(l) }
}

// NewService creates a notice service.
func NewService(api API, store kvstore.Store, tokens TokenSource, opts ...Option) *Service {
	s := &Service{
		api:      api,
		store:    store,
		tokens:   tokens,
		log:      logging.Discard(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		timeout:  DefaultCacheTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns notices from the network, falling back to a fresh cache and
// then to an empty slice. It never fails.
func (s *Service) List(ctx context.Context) ([]models.Notice, Source) {
	raw, err := s.api.ListNotices(ctx)
	if err == nil {
		var notices []models.Notice
		if notices, err = s.decode(raw); err == nil {
			s.writeCache(ctx, raw)
			return notices, SourceNetwork
		}
	}
	s.log.Debug("fetch notices failed, trying cache", "err", err)

	if cached, ok := s.readCache(ctx); ok {
		if notices, err := s.decode(cached); err == nil {
			return notices, SourceCache
		}
	}
	return []models.Notice{}, SourceEmpty
}

// decode reads a notice array entry by entry. Entries that do not decode are
// skipped.
func (s *Service) decode(raw json.RawMessage) ([]models.Notice, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode notices: %w", err)
	}
	if entries == nil {
		return nil, errors.New("response is not an array")
	}
	notices := make([]models.Notice, 0, len(entries))
	for i, e := range entries {
		var n models.Notice
		if err := json.Unmarshal(e, &n); err != nil {
			s.log.Debug("skip malformed notice", "index", i, "err", err)
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// Find returns the notice with the given id from List.
func (s *Service) Find(ctx context.Context, id string) (*models.Notice, Source, bool) {
	notices, src := s.List(ctx)
	for i := range notices {
		if notices[i].Matches(id) {
			return &notices[i], src, true
		}
	}
	return nil, src, false
}

// Create posts a new notice and invalidates the cache.
func (s *Service) Create(ctx context.Context, in Input) (*apiclient.Response, error) {
	form, token, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.CreateNotice(ctx, token, form)
	if err != nil {
		return nil, fmt.Errorf("create notice: %w", err)
	}
	s.clearCache(ctx)
	return resp, nil
}

// Update replaces notice id and invalidates the cache.
func (s *Service) Update(ctx context.Context, id string, in Input) (*apiclient.Response, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	form, token, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.UpdateNotice(ctx, token, id, form)
	if err != nil {
		return nil, fmt.Errorf("update notice: %w", err)
	}
	s.clearCache(ctx)
	return resp, nil
}

// Delete removes notice id and invalidates the cache.
func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Response, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.DeleteNotice(ctx, token, id)
	if err != nil {
		return nil, fmt.Errorf("delete notice: %w", err)
	}
	s.clearCache(ctx)
	return resp, nil
}

func (s *Service) prepare(ctx context.Context, in Input) (apiclient.NoticeForm, string, error) {
	if err := s.validate.Struct(in); err != nil {
		return apiclient.NoticeForm{}, "", fmt.Errorf("%w: %s", ErrInvalidInput, describe(err))
	}
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return apiclient.NoticeForm{}, "", err
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}
	return apiclient.NoticeForm{
		Title:    in.Title,
		Content:  in.Content,
		Priority: priority,
		PdfFile:  in.PdfFile,
	}, token, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fe.Error()
	}
}
