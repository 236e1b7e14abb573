// Package site manages the owner-scoped content a portfolio site renders:
// header, footer, entries and appointment bookings.
package site

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/cache"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/geocoder89/sitehub/internal/utils"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	cleanupTimeout = 5 * time.Second
)

type EntryStore interface {
	CreateEntry(ctx context.Context, e content.Entry) (content.Entry, error)
	GetEntry(ctx context.Context, kind content.Kind, id string) (content.Entry, error)
	// ListEntries returns newest first.
	ListEntries(ctx context.Context, filter content.EntryFilter) ([]content.Entry, error)
	UpdateEntry(ctx context.Context, e content.Entry) (content.Entry, error)
	DeleteEntry(ctx context.Context, kind content.Kind, id string) error
}

type HeaderStore interface {
	GetHeader(ctx context.Context, ownerID string) (content.Header, error)
	// CreateHeader fails with content.ErrAlreadyExists when the owner has one.
	CreateHeader(ctx context.Context, h content.Header) (content.Header, error)
	UpdateHeader(ctx context.Context, h content.Header) (content.Header, error)
	DeleteHeader(ctx context.Context, ownerID string) error
}

type FooterStore interface {
	GetFooter(ctx context.Context, ownerID string) (content.Footer, error)
	UpsertFooter(ctx context.Context, f content.Footer) (content.Footer, error)
	DeleteFooter(ctx context.Context, ownerID string) error
}

type AppointmentStore interface {
	CreateAppointment(ctx context.Context, a content.Appointment) (content.Appointment, error)
	GetAppointment(ctx context.Context, id string) (content.Appointment, error)
	ListAppointments(ctx context.Context, filter content.AppointmentFilter) ([]content.Appointment, error)
	UpdateAppointment(ctx context.Context, id string, upd content.UpdateAppointmentRequest, now time.Time) (content.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id string, status content.AppointmentStatus, now time.Time) (content.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error
}

type Store interface {
	EntryStore
	HeaderStore
	FooterStore
	AppointmentStore
}

type Uploader interface {
	Upload(ctx context.Context, f media.File) (string, error)
	Delete(ctx context.Context, url string) error
}

type Deps struct {
	Store Store
	Media Uploader
	// Cache holds public reads. Nil disables caching.
	Cache *cache.Cache
	Log   *slog.Logger
	Now   func() time.Time
}

type Service struct {
	store Store
	media Uploader
	cache *cache.Cache
	log   *slog.Logger
	now   func() time.Time
}

func NewService(deps Deps) *Service {
	if deps.Media == nil {
		deps.Media = media.Disabled{}
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Service{
		store: deps.Store,
		media: deps.Media,
		cache: deps.Cache,
		log:   deps.Log,
		now:   deps.Now,
	}
}

func requireOwner(actor actorctx.Identity, ownerID string) error {
	if actor.UserID == "" || actor.UserID != ownerID {
		return content.ErrNotOwner
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// upload stores f when present and returns "" otherwise.
func (s *Service) upload(ctx context.Context, f *media.File, folder string) (string, error) {
	if f == nil {
		return "", nil
	}
	f.Folder = folder
	return s.media.Upload(ctx, *f)
}

// discard deletes objects that are no longer referenced. Failures are logged
// and never reach the caller.
func (s *Service) discard(ctx context.Context, urls ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := s.media.Delete(ctx, url); err != nil {
			s.log.WarnContext(ctx, "media cleanup failed", "url", url, "err", err)
		}
	}
}

func (s *Service) cached(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *Service) remember(key string, v any) {
	if s.cache != nil {
		s.cache.Set(key, v)
	}
}

func (s *Service) invalidate(resource string) {
	if s.cache != nil {
		s.cache.DeletePrefix(utils.ContentCachePrefix(resource))
	}
}
