package mongostore

import (
	"context"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/user"
	"go.mongodb.org/mongo-driver/v2/bson"
)

var unsetReset = bson.E{Key: "$unset", Value: bson.D{
	{Key: "reset_token_hash", Value: ""},
	{Key: "reset_token_expiry", Value: ""},
}}

// UsersRepo is the Mongo credential store.
type UsersRepo struct {
	s *Store
}

func (s *Store) Users() *UsersRepo { return &UsersRepo{s: s} }

func (r *UsersRepo) Ping(ctx context.Context) error { return r.s.Ping(ctx) }

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.s.observe("users.create", func() error {
		_, err := r.s.col(ColUsers).InsertOne(ctx, u)
		return wrapError(err, user.ErrNotFound, user.ErrEmailTaken)
	}, user.ErrEmailTaken)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) get(ctx context.Context, op string, filter bson.D) (user.User, error) {
	var u user.User
	err := r.s.observe(op, func() error {
		var err error
		u, err = findOne[user.User](ctx, r.s.col(ColUsers), filter)
		return wrapError(err, user.ErrNotFound, nil)
	}, user.ErrNotFound)
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.get(ctx, "users.get_by_id", bson.D{{Key: "_id", Value: id}})
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.get(ctx, "users.get_by_email", bson.D{{Key: "email", Value: email}})
}

func (r *UsersRepo) update(ctx context.Context, op string, filter, update bson.D, ignore ...error) (user.User, error) {
	var u user.User
	err := r.s.observe(op, func() error {
		var err error
		u, err = findOneAndUpdate[user.User](ctx, r.s.col(ColUsers), filter, update)
		return wrapError(err, user.ErrNotFound, user.ErrEmailTaken)
	}, append(ignore, user.ErrNotFound)...)
	return u, err
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	if upd.FullName != nil {
		set = append(set, bson.E{Key: "full_name", Value: *upd.FullName})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *upd.Phone})
	}

	return r.update(ctx, "users.update_profile",
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		user.ErrEmailTaken)
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := r.update(ctx, "users.update_password",
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "password_hash", Value: passwordHash},
				{Key: "updated_at", Value: time.Now().UTC()},
			}},
			unsetReset,
		})
	return err
}

func (r *UsersRepo) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	_, err := r.update(ctx, "users.set_reset_token",
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "reset_token_hash", Value: tokenHash},
			{Key: "reset_token_expiry", Value: expiresAt.UTC()},
		}}})
	return err
}

// ClearResetToken is a no-op when a newer token has replaced tokenHash.
func (r *UsersRepo) ClearResetToken(ctx context.Context, id, tokenHash string) error {
	return r.s.observe("users.clear_reset_token", func() error {
		_, err := r.s.col(ColUsers).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: id}, {Key: "reset_token_hash", Value: tokenHash}},
			bson.D{unsetReset})
		return err
	})
}

// RedeemResetToken matches, rotates and clears in one document update, so
// two concurrent redemptions of the same token cannot both succeed.
func (r *UsersRepo) RedeemResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (user.User, error) {
	if tokenHash == "" {
		return user.User{}, user.ErrNotFound
	}

	return r.update(ctx, "users.redeem_reset_token",
		bson.D{
			{Key: "reset_token_hash", Value: tokenHash},
			{Key: "reset_token_expiry", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
		},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "password_hash", Value: newPasswordHash},
				{Key: "updated_at", Value: now.UTC()},
			}},
			unsetReset,
		})
}

func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	q := bson.D{}
	if filter.Role != nil {
		q = append(q, bson.E{Key: "role", Value: string(*filter.Role)})
	}
	if c := filter.Cursor; c != nil {
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: c.CreatedAt}}}},
			bson.D{{Key: "created_at", Value: c.CreatedAt}, {Key: "_id", Value: bson.D{{Key: "$lt", Value: c.ID}}}},
		}})
	}

	var out []user.User
	err := r.s.observe("users.list", func() error {
		var err error
		out, err = findMany[user.User](ctx, r.s.col(ColUsers), q, newestFirst(filter.Limit))
		return err
	})
	return out, err
}

func (r *UsersRepo) SetRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	return r.update(ctx, "users.set_role",
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "role", Value: string(role)},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}})
}

func (r *UsersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.s.observe("users.clear_expired_reset_tokens", func() error {
		res, err := r.s.col(ColUsers).UpdateMany(ctx,
			bson.D{{Key: "reset_token_expiry", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}},
			bson.D{unsetReset})
		if err != nil {
			return err
		}
		n = res.ModifiedCount
		return nil
	})
	return n, err
}
