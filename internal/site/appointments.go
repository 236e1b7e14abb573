package site

import (
	"context"
	"strings"

	"github.com/geocoder89/sitehub/internal/actorctx"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/google/uuid"
)

// BookAppointment records a public booking request. It needs no session.
func (s *Service) BookAppointment(ctx context.Context, req content.BookAppointmentRequest) (content.Appointment, error) {
	req.Email = user.NormalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	if err := validation.Struct(req); err != nil {
		return content.Appointment{}, err
	}

	now := s.now().UTC()
	a, err := s.store.CreateAppointment(ctx, content.Appointment{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Message:   req.Message,
		Status:    content.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return content.Appointment{}, err
	}

	s.log.InfoContext(ctx, "appointment booked", "id", a.ID, "owner_id", a.OwnerID)
	return a, nil
}

func (s *Service) ListAppointments(ctx context.Context, actor actorctx.Identity, status *content.AppointmentStatus, limit int) ([]content.Appointment, error) {
	items, err := s.store.ListAppointments(ctx, content.AppointmentFilter{
		OwnerID: actor.UserID,
		Status:  status,
		Limit:   clampLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []content.Appointment{}
	}
	return items, nil
}

func (s *Service) GetAppointment(ctx context.Context, actor actorctx.Identity, id string) (content.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, id)
	if err != nil {
		return content.Appointment{}, err
	}
	if !a.VisibleTo(actor.UserID) {
		return content.Appointment{}, content.ErrNotOwner
	}
	return a, nil
}

// UpdateAppointment edits name, email, phone or message of a booking the
// actor can see.
func (s *Service) UpdateAppointment(ctx context.Context, actor actorctx.Identity, id string, req content.UpdateAppointmentRequest) (content.Appointment, error) {
	req.Name = trimmed(req.Name)
	req.Phone = trimmed(req.Phone)
	req.Message = trimmed(req.Message)
	if req.Email != nil {
		e := user.NormalizeEmail(*req.Email)
		req.Email = &e
	}
	if req.IsEmpty() {
		return content.Appointment{}, content.ErrNothingToUpdate
	}
	if err := validation.Struct(req); err != nil {
		return content.Appointment{}, err
	}
	if _, err := s.GetAppointment(ctx, actor, id); err != nil {
		return content.Appointment{}, err
	}

	a, err := s.store.UpdateAppointment(ctx, id, req, s.now().UTC())
	if err != nil {
		return content.Appointment{}, err
	}

	s.log.InfoContext(ctx, "appointment updated", "id", id, "actor_id", actor.UserID)
	return a, nil
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

func (s *Service) UpdateAppointmentStatus(ctx context.Context, actor actorctx.Identity, id string, req content.UpdateAppointmentStatusRequest) (content.Appointment, error) {
	if err := validation.Struct(req); err != nil {
		return content.Appointment{}, err
	}
	if _, err := s.GetAppointment(ctx, actor, id); err != nil {
		return content.Appointment{}, err
	}

	a, err := s.store.UpdateAppointmentStatus(ctx, id, req.Status, s.now().UTC())
	if err != nil {
		return content.Appointment{}, err
	}

	s.log.InfoContext(ctx, "appointment status changed", "id", id, "status", string(req.Status), "actor_id", actor.UserID)
	return a, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, actor actorctx.Identity, id string) error {
	if _, err := s.GetAppointment(ctx, actor, id); err != nil {
		return err
	}
	return s.store.DeleteAppointment(ctx, id)
}
