package mongostore

import (
	"context"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/content"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ContentRepo stores entries, headers, footers and appointments.
type ContentRepo struct {
	s *Store
}

func (s *Store) Content() *ContentRepo { return &ContentRepo{s: s} }

func (r *ContentRepo) CreateEntry(ctx context.Context, e content.Entry) (content.Entry, error) {
	err := r.s.observe("entries.create", func() error {
		_, err := r.s.col(ColEntries).InsertOne(ctx, e)
		return err
	})
	if err != nil {
		return content.Entry{}, err
	}
	return e, nil
}

func (r *ContentRepo) GetEntry(ctx context.Context, kind content.Kind, id string) (content.Entry, error) {
	var e content.Entry
	err := r.s.observe("entries.get", func() error {
		var err error
		e, err = findOne[content.Entry](ctx, r.s.col(ColEntries), bson.D{{Key: "_id", Value: id}, {Key: "kind", Value: string(kind)}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return e, err
}

func (r *ContentRepo) ListEntries(ctx context.Context, f content.EntryFilter) ([]content.Entry, error) {
	q := bson.D{{Key: "kind", Value: string(f.Kind)}}
	if f.OwnerID != "" {
		q = append(q, bson.E{Key: "owner_id", Value: f.OwnerID})
	}

	var out []content.Entry
	err := r.s.observe("entries.list", func() error {
		var err error
		out, err = findMany[content.Entry](ctx, r.s.col(ColEntries), q, newestFirst(f.Limit))
		return err
	})
	return out, err
}

func (r *ContentRepo) UpdateEntry(ctx context.Context, e content.Entry) (content.Entry, error) {
	var out content.Entry
	err := r.s.observe("entries.update", func() error {
		var err error
		out, err = findOneAndUpdate[content.Entry](ctx, r.s.col(ColEntries),
			bson.D{{Key: "_id", Value: e.ID}, {Key: "kind", Value: string(e.Kind)}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "title", Value: e.Title},
				{Key: "head_title", Value: e.HeadTitle},
				{Key: "description", Value: e.Description},
				{Key: "image_url", Value: e.ImageURL},
				{Key: "updated_at", Value: e.UpdatedAt},
			}}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return out, err
}

func (r *ContentRepo) DeleteEntry(ctx context.Context, kind content.Kind, id string) error {
	return r.s.observe("entries.delete", func() error {
		return deleteOne(ctx, r.s.col(ColEntries), bson.D{{Key: "_id", Value: id}, {Key: "kind", Value: string(kind)}}, content.ErrNotFound)
	}, content.ErrNotFound)
}

func (r *ContentRepo) GetHeader(ctx context.Context, ownerID string) (content.Header, error) {
	var h content.Header
	err := r.s.observe("headers.get", func() error {
		var err error
		h, err = findOne[content.Header](ctx, r.s.col(ColHeaders), bson.D{{Key: "owner_id", Value: ownerID}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return h, err
}

func (r *ContentRepo) CreateHeader(ctx context.Context, h content.Header) (content.Header, error) {
	err := r.s.observe("headers.create", func() error {
		_, err := r.s.col(ColHeaders).InsertOne(ctx, h)
		return wrapError(err, content.ErrNotFound, content.ErrAlreadyExists)
	}, content.ErrAlreadyExists)
	if err != nil {
		return content.Header{}, err
	}
	return h, nil
}

func (r *ContentRepo) UpdateHeader(ctx context.Context, h content.Header) (content.Header, error) {
	var out content.Header
	err := r.s.observe("headers.update", func() error {
		var err error
		out, err = findOneAndUpdate[content.Header](ctx, r.s.col(ColHeaders),
			bson.D{{Key: "owner_id", Value: h.OwnerID}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "logo_url", Value: h.LogoURL},
				{Key: "nav_items", Value: h.NavItems},
				{Key: "updated_at", Value: h.UpdatedAt},
			}}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return out, err
}

func (r *ContentRepo) DeleteHeader(ctx context.Context, ownerID string) error {
	return r.s.observe("headers.delete", func() error {
		return deleteOne(ctx, r.s.col(ColHeaders), bson.D{{Key: "owner_id", Value: ownerID}}, content.ErrNotFound)
	}, content.ErrNotFound)
}

func (r *ContentRepo) GetFooter(ctx context.Context, ownerID string) (content.Footer, error) {
	var f content.Footer
	err := r.s.observe("footers.get", func() error {
		var err error
		f, err = findOne[content.Footer](ctx, r.s.col(ColFooters), bson.D{{Key: "owner_id", Value: ownerID}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return f, err
}

// UpsertFooter replaces the owner's footer, inserting it on first write.
func (r *ContentRepo) UpsertFooter(ctx context.Context, f content.Footer) (content.Footer, error) {
	var out content.Footer
	err := r.s.observe("footers.upsert", func() error {
		opts := options.FindOneAndReplace().SetUpsert(true).SetReturnDocument(options.After)
		return r.s.col(ColFooters).FindOneAndReplace(ctx, bson.D{{Key: "owner_id", Value: f.OwnerID}}, f, opts).Decode(&out)
	})
	return out, err
}

func (r *ContentRepo) DeleteFooter(ctx context.Context, ownerID string) error {
	return r.s.observe("footers.delete", func() error {
		return deleteOne(ctx, r.s.col(ColFooters), bson.D{{Key: "owner_id", Value: ownerID}}, content.ErrNotFound)
	}, content.ErrNotFound)
}

func (r *ContentRepo) CreateAppointment(ctx context.Context, a content.Appointment) (content.Appointment, error) {
	err := r.s.observe("appointments.create", func() error {
		_, err := r.s.col(ColAppointments).InsertOne(ctx, a)
		return err
	})
	if err != nil {
		return content.Appointment{}, err
	}
	return a, nil
}

func (r *ContentRepo) GetAppointment(ctx context.Context, id string) (content.Appointment, error) {
	var a content.Appointment
	err := r.s.observe("appointments.get", func() error {
		var err error
		a, err = findOne[content.Appointment](ctx, r.s.col(ColAppointments), bson.D{{Key: "_id", Value: id}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return a, err
}

// ListAppointments returns bookings addressed to f.OwnerID plus unassigned ones.
func (r *ContentRepo) ListAppointments(ctx context.Context, f content.AppointmentFilter) ([]content.Appointment, error) {
	owners := bson.A{"", nil}
	if f.OwnerID != "" {
		owners = append(owners, f.OwnerID)
	}
	q := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "owner_id", Value: bson.D{{Key: "$in", Value: owners}}}},
		bson.D{{Key: "owner_id", Value: bson.D{{Key: "$exists", Value: false}}}},
	}}}
	if f.Status != nil {
		q = append(q, bson.E{Key: "status", Value: string(*f.Status)})
	}

	var out []content.Appointment
	err := r.s.observe("appointments.list", func() error {
		var err error
		out, err = findMany[content.Appointment](ctx, r.s.col(ColAppointments), q, newestFirst(f.Limit))
		return err
	})
	return out, err
}

func (r *ContentRepo) UpdateAppointment(ctx context.Context, id string, upd content.UpdateAppointmentRequest, now time.Time) (content.Appointment, error) {
	set := bson.D{{Key: "updated_at", Value: now}}
	for _, f := range []struct {
		key string
		val *string
	}{
		{"name", upd.Name},
		{"email", upd.Email},
		{"phone", upd.Phone},
		{"message", upd.Message},
	} {
		if f.val != nil {
			set = append(set, bson.E{Key: f.key, Value: *f.val})
		}
	}

	var a content.Appointment
	err := r.s.observe("appointments.update", func() error {
		var err error
		a, err = findOneAndUpdate[content.Appointment](ctx, r.s.col(ColAppointments),
			bson.D{{Key: "_id", Value: id}},
			bson.D{{Key: "$set", Value: set}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return a, err
}

func (r *ContentRepo) UpdateAppointmentStatus(ctx context.Context, id string, status content.AppointmentStatus, now time.Time) (content.Appointment, error) {
	var a content.Appointment
	err := r.s.observe("appointments.update_status", func() error {
		var err error
		a, err = findOneAndUpdate[content.Appointment](ctx, r.s.col(ColAppointments),
			bson.D{{Key: "_id", Value: id}},
			bson.D{{Key: "$set", Value: bson.D{
				{Key: "status", Value: string(status)},
				{Key: "updated_at", Value: now},
			}}})
		return wrapError(err, content.ErrNotFound, nil)
	}, content.ErrNotFound)
	return a, err
}

func (r *ContentRepo) DeleteAppointment(ctx context.Context, id string) error {
	return r.s.observe("appointments.delete", func() error {
		return deleteOne(ctx, r.s.col(ColAppointments), bson.D{{Key: "_id", Value: id}}, content.ErrNotFound)
	}, content.ErrNotFound)
}
