package site

import (
	"context"
	"errors"
	"strings"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/geocoder89/sitehub/internal/utils"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/google/uuid"
)

const (
	resourceHeader = "header"
	resourceFooter = "footer"
)

func normalizeNav(items []content.NavItem) ([]content.NavItem, error) {
	if items != nil {
		out := make([]content.NavItem, len(items))
		for i, it := range items {
			out[i] = content.NavItem{Label: strings.TrimSpace(it.Label), Link: strings.TrimSpace(it.Link)}
		}
		items = out
	}
	if err := validation.Struct(content.NavItemsInput{Items: items}); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) GetHeader(ctx context.Context, ownerID string) (content.Header, error) {
	key := utils.ContentItemCacheKey(resourceHeader, ownerID)
	if v, ok := s.cached(key); ok {
		return v.(content.Header), nil
	}

	h, err := s.store.GetHeader(ctx, ownerID)
	if err != nil {
		return content.Header{}, err
	}

	s.remember(key, h)
	return h, nil
}

// CreateHeader requires a logo. Each owner gets exactly one header.
func (s *Service) CreateHeader(ctx context.Context, actor actorctx.Identity, navItems []content.NavItem, logo *media.File) (content.Header, error) {
	if actor.UserID == "" {
		return content.Header{}, content.ErrNotOwner
	}

	nav, err := normalizeNav(navItems)
	if err != nil {
		return content.Header{}, err
	}
	if logo == nil {
		return content.Header{}, validation.Field("logo", "required", "is required")
	}

	_, err = s.store.GetHeader(ctx, actor.UserID)
	switch {
	case err == nil:
		return content.Header{}, content.ErrAlreadyExists
	case !errors.Is(err, content.ErrNotFound):
		return content.Header{}, err
	}

	url, err := s.upload(ctx, logo, resourceHeader)
	if err != nil {
		return content.Header{}, err
	}

	now := s.now().UTC()
	h, err := s.store.CreateHeader(ctx, content.Header{
		ID:        uuid.NewString(),
		OwnerID:   actor.UserID,
		LogoURL:   url,
		NavItems:  nav,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.discard(ctx, url)
		return content.Header{}, err
	}

	s.invalidate(resourceHeader)
	return h, nil
}

// UpdateHeader replaces the nav items when navItems is non-nil and the logo
// when logo is non-nil. At least one must be supplied.
func (s *Service) UpdateHeader(ctx context.Context, actor actorctx.Identity, navItems []content.NavItem, logo *media.File) (content.Header, error) {
	if navItems == nil && logo == nil {
		return content.Header{}, content.ErrNothingToUpdate
	}

	h, err := s.store.GetHeader(ctx, actor.UserID)
	if err != nil {
		return content.Header{}, err
	}

	if navItems != nil {
		nav, err := normalizeNav(navItems)
		if err != nil {
			return content.Header{}, err
		}
		h.NavItems = nav
	}

	oldURL := h.LogoURL
	newURL, err := s.upload(ctx, logo, resourceHeader)
	if err != nil {
		return content.Header{}, err
	}
	if newURL != "" {
		h.LogoURL = newURL
	}
	h.UpdatedAt = s.now().UTC()

	updated, err := s.store.UpdateHeader(ctx, h)
	if err != nil {
		s.discard(ctx, newURL)
		return content.Header{}, err
	}

	if newURL != "" {
		s.discard(ctx, oldURL)
	}
	s.invalidate(resourceHeader)
	return updated, nil
}

func (s *Service) DeleteHeader(ctx context.Context, actor actorctx.Identity) error {
	h, err := s.store.GetHeader(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteHeader(ctx, actor.UserID); err != nil {
		return err
	}

	s.discard(ctx, h.LogoURL)
	s.invalidate(resourceHeader)
	return nil
}

func (s *Service) GetFooter(ctx context.Context, ownerID string) (content.Footer, error) {
	key := utils.ContentItemCacheKey(resourceFooter, ownerID)
	if v, ok := s.cached(key); ok {
		return v.(content.Footer), nil
	}

	f, err := s.store.GetFooter(ctx, ownerID)
	if err != nil {
		return content.Footer{}, err
	}

	s.remember(key, f)
	return f, nil
}

// UpsertFooter creates the caller's footer on first use and patches it afterwards.
func (s *Service) UpsertFooter(ctx context.Context, actor actorctx.Identity, in content.FooterInput, logo, footerImage *media.File) (content.Footer, error) {
	if actor.UserID == "" {
		return content.Footer{}, content.ErrNotOwner
	}
	if err := validation.Struct(in); err != nil {
		return content.Footer{}, err
	}

	now := s.now().UTC()
	f, err := s.store.GetFooter(ctx, actor.UserID)
	switch {
	case errors.Is(err, content.ErrNotFound):
		f = content.Footer{ID: uuid.NewString(), OwnerID: actor.UserID, CreatedAt: now}
	case err != nil:
		return content.Footer{}, err
	}
	in.Apply(&f)

	oldLogo, oldImage := f.LogoURL, f.FooterImageURL

	logoURL, err := s.upload(ctx, logo, resourceFooter)
	if err != nil {
		return content.Footer{}, err
	}
	imageURL, err := s.upload(ctx, footerImage, resourceFooter)
	if err != nil {
		s.discard(ctx, logoURL)
		return content.Footer{}, err
	}

	var replaced []string
	if logoURL != "" {
		f.LogoURL = logoURL
		replaced = append(replaced, oldLogo)
	}
	if imageURL != "" {
		f.FooterImageURL = imageURL
		replaced = append(replaced, oldImage)
	}
	f.UpdatedAt = now

	saved, err := s.store.UpsertFooter(ctx, f)
	if err != nil {
		s.discard(ctx, logoURL, imageURL)
		return content.Footer{}, err
	}

	s.discard(ctx, replaced...)
	s.invalidate(resourceFooter)
	return saved, nil
}

func (s *Service) DeleteFooter(ctx context.Context, actor actorctx.Identity) error {
	f, err := s.store.GetFooter(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteFooter(ctx, actor.UserID); err != nil {
		return err
	}

	s.discard(ctx, f.LogoURL, f.FooterImageURL)
	s.invalidate(resourceFooter)
	return nil
}
