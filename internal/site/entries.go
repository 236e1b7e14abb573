package site

import (
	"context"
	"fmt"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/geocoder89/sitehub/internal/utils"
	"github.com/google/uuid"
)

func (s *Service) CreateEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, in content.EntryInput, image *media.File) (content.Entry, error) {
	if !kind.Valid() {
		return content.Entry{}, fmt.Errorf("unknown content kind %q", kind)
	}
	if actor.UserID == "" {
		return content.Entry{}, content.ErrNotOwner
	}

	now := s.now().UTC()
	e := content.Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		OwnerID:   actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	in.Apply(&e)

	if err := e.Validate(image != nil); err != nil {
		return content.Entry{}, err
	}

	url, err := s.upload(ctx, image, string(kind))
	if err != nil {
		return content.Entry{}, err
	}
	e.ImageURL = url

	created, err := s.store.CreateEntry(ctx, e)
	if err != nil {
		s.discard(ctx, url)
		return content.Entry{}, err
	}

	s.invalidate(string(kind))
	s.log.InfoContext(ctx, "content created", "kind", string(kind), "id", created.ID, "owner_id", actor.UserID)
	return created, nil
}

func (s *Service) GetEntry(ctx context.Context, kind content.Kind, id string) (content.Entry, error) {
	key := utils.ContentItemCacheKey(string(kind), id)
	if v, ok := s.cached(key); ok {
		return v.(content.Entry), nil
	}

	e, err := s.store.GetEntry(ctx, kind, id)
	if err != nil {
		return content.Entry{}, err
	}

	s.remember(key, e)
	return e, nil
}

// ListEntries returns the newest entries of one kind, optionally for a single owner.
func (s *Service) ListEntries(ctx context.Context, kind content.Kind, ownerID string, limit int) ([]content.Entry, error) {
	limit = clampLimit(limit)

	key := utils.ContentListCacheKey(string(kind), ownerID, limit)
	if v, ok := s.cached(key); ok {
		return v.([]content.Entry), nil
	}

	items, err := s.store.ListEntries(ctx, content.EntryFilter{Kind: kind, OwnerID: ownerID, Limit: limit})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []content.Entry{}
	}

	s.remember(key, items)
	return items, nil
}

// UpdateEntry applies the supplied fields and, when image is set, replaces
// the stored image. The old object is removed only after the write lands.
func (s *Service) UpdateEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string, in content.EntryInput, image *media.File) (content.Entry, error) {
	if in.Empty() && image == nil {
		return content.Entry{}, content.ErrNothingToUpdate
	}

	e, err := s.store.GetEntry(ctx, kind, id)
	if err != nil {
		return content.Entry{}, err
	}
	if err := requireOwner(actor, e.OwnerID); err != nil {
		return content.Entry{}, err
	}

	in.Apply(&e)
	if err := e.Validate(image != nil || e.ImageURL != ""); err != nil {
		return content.Entry{}, err
	}

	oldURL := e.ImageURL
	newURL, err := s.upload(ctx, image, string(kind))
	if err != nil {
		return content.Entry{}, err
	}
	if newURL != "" {
		e.ImageURL = newURL
	}
	e.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		s.discard(ctx, newURL)
		return content.Entry{}, err
	}

	if newURL != "" {
		s.discard(ctx, oldURL)
	}
	s.invalidate(string(kind))
	return updated, nil
}

// RemoveEntryImage detaches the image from kinds where it is optional.
func (s *Service) RemoveEntryImage(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string) (content.Entry, error) {
	if kind.Rules().ImageRequired {
		return content.Entry{}, content.ErrImageRequired
	}

	e, err := s.store.GetEntry(ctx, kind, id)
	if err != nil {
		return content.Entry{}, err
	}
	if err := requireOwner(actor, e.OwnerID); err != nil {
		return content.Entry{}, err
	}
	if e.ImageURL == "" {
		return e, nil
	}

	oldURL := e.ImageURL
	e.ImageURL = ""
	e.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateEntry(ctx, e)
	if err != nil {
		return content.Entry{}, err
	}

	s.discard(ctx, oldURL)
	s.invalidate(string(kind))
	return updated, nil
}

func (s *Service) DeleteEntry(ctx context.Context, actor actorctx.Identity, kind content.Kind, id string) error {
	e, err := s.store.GetEntry(ctx, kind, id)
	if err != nil {
		return err
	}
	if err := requireOwner(actor, e.OwnerID); err != nil {
		return err
	}

	if err := s.store.DeleteEntry(ctx, kind, id); err != nil {
		return err
	}

	s.discard(ctx, e.ImageURL)
	s.invalidate(string(kind))
	s.log.InfoContext(ctx, "content deleted", "kind", string(kind), "id", id, "owner_id", actor.UserID)
	return nil
}
