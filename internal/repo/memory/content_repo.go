package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/content"
)

// ContentRepo keeps site content in process. It backs tests and the
// memory store driver.
type ContentRepo struct {
	mu           sync.RWMutex
	entries      map[string]content.Entry
	headers      map[string]content.Header
	footers      map[string]content.Footer
	appointments map[string]content.Appointment
}

func NewContentRepo() *ContentRepo {
	return &ContentRepo{
		entries:      make(map[string]content.Entry),
		headers:      make(map[string]content.Header),
		footers:      make(map[string]content.Footer),
		appointments: make(map[string]content.Appointment),
	}
}

func (r *ContentRepo) CreateEntry(_ context.Context, e content.Entry) (content.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[e.ID] = e
	return e, nil
}

func (r *ContentRepo) GetEntry(_ context.Context, kind content.Kind, id string) (content.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok || e.Kind != kind {
		return content.Entry{}, content.ErrNotFound
	}
	return e, nil
}

func (r *ContentRepo) ListEntries(_ context.Context, f content.EntryFilter) ([]content.Entry, error) {
	r.mu.RLock()
	out := make([]content.Entry, 0)
	for _, e := range r.entries {
		if e.Kind != f.Kind {
			continue
		}
		if f.OwnerID != "" && e.OwnerID != f.OwnerID {
			continue
		}
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ContentRepo) UpdateEntry(_ context.Context, e content.Entry) (content.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.entries[e.ID]
	if !ok || cur.Kind != e.Kind {
		return content.Entry{}, content.ErrNotFound
	}
	e.OwnerID = cur.OwnerID
	e.CreatedAt = cur.CreatedAt
	r.entries[e.ID] = e
	return e, nil
}

func (r *ContentRepo) DeleteEntry(_ context.Context, kind content.Kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok || e.Kind != kind {
		return content.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func (r *ContentRepo) GetHeader(_ context.Context, ownerID string) (content.Header, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.headers[ownerID]
	if !ok {
		return content.Header{}, content.ErrNotFound
	}
	return h, nil
}

func (r *ContentRepo) CreateHeader(_ context.Context, h content.Header) (content.Header, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.headers[h.OwnerID]; exists {
		return content.Header{}, content.ErrAlreadyExists
	}
	r.headers[h.OwnerID] = h
	return h, nil
}

func (r *ContentRepo) UpdateHeader(_ context.Context, h content.Header) (content.Header, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.headers[h.OwnerID]
	if !ok {
		return content.Header{}, content.ErrNotFound
	}
	h.ID = cur.ID
	h.CreatedAt = cur.CreatedAt
	r.headers[h.OwnerID] = h
	return h, nil
}

func (r *ContentRepo) DeleteHeader(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.headers[ownerID]; !ok {
		return content.ErrNotFound
	}
	delete(r.headers, ownerID)
	return nil
}

func (r *ContentRepo) GetFooter(_ context.Context, ownerID string) (content.Footer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.footers[ownerID]
	if !ok {
		return content.Footer{}, content.ErrNotFound
	}
	return f, nil
}

func (r *ContentRepo) UpsertFooter(_ context.Context, f content.Footer) (content.Footer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.footers[f.OwnerID]; ok {
		f.ID = cur.ID
		f.CreatedAt = cur.CreatedAt
	}
	r.footers[f.OwnerID] = f
	return f, nil
}

func (r *ContentRepo) DeleteFooter(_ context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.footers[ownerID]; !ok {
		return content.ErrNotFound
	}
	delete(r.footers, ownerID)
	return nil
}

func (r *ContentRepo) CreateAppointment(_ context.Context, a content.Appointment) (content.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.appointments[a.ID] = a
	return a, nil
}

func (r *ContentRepo) GetAppointment(_ context.Context, id string) (content.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return content.Appointment{}, content.ErrNotFound
	}
	return a, nil
}

func (r *ContentRepo) ListAppointments(_ context.Context, f content.AppointmentFilter) ([]content.Appointment, error) {
	r.mu.RLock()
	out := make([]content.Appointment, 0)
	for _, a := range r.appointments {
		if !a.VisibleTo(f.OwnerID) {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		out = append(out, a)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ContentRepo) UpdateAppointment(_ context.Context, id string, upd content.UpdateAppointmentRequest, now time.Time) (content.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return content.Appointment{}, content.ErrNotFound
	}
	upd.Apply(&a)
	a.UpdatedAt = now
	r.appointments[id] = a
	return a, nil
}

func (r *ContentRepo) UpdateAppointmentStatus(_ context.Context, id string, status content.AppointmentStatus, now time.Time) (content.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return content.Appointment{}, content.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = now
	r.appointments[id] = a
	return a, nil
}

func (r *ContentRepo) DeleteAppointment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return content.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}
