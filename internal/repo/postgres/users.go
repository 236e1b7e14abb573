package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, full_name, email, phone, password_hash, role, created_at, updated_at, reset_token_hash, reset_token_expiry`

// UsersRepo is the Postgres credential store.
type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *UsersRepo) observe(op string, fn func() error, ignore ...error) error {
	if r.prom == nil {
		return fn()
	}
	return r.prom.ObserveStore(op, fn, ignore...)
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u         user.User
		role      string
		tokenHash *string
	)

	err := row.Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
		&tokenHash,
		&u.ResetTokenExpiry,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.Role = user.Role(role)
	if tokenHash != nil {
		u.ResetTokenHash = *tokenHash
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, full_name, email, phone, password_hash, role, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			u.ID, u.FullName, u.Email, u.Phone, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	}, user.ErrEmailTaken)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) queryOne(ctx context.Context, op, sql string, args ...any) (user.User, error) {
	var u user.User
	err := r.observe(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, sql, args...))
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return err
	}, user.ErrNotFound, user.ErrEmailTaken)
	return u, err
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.queryOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.queryOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}

	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	add("full_name", upd.FullName)
	add("email", upd.Email)
	add("phone", upd.Phone)

	return r.queryOne(ctx, "users.update_profile",
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = $1 RETURNING `+userColumns,
		args...)
}

func (r *UsersRepo) exec(ctx context.Context, op, sql string, args ...any) (int64, error) {
	var n int64
	err := r.observe(op, func() error {
		tag, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	n, err := r.exec(ctx, "users.update_password", `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = NOW()
		WHERE id = $1
	`, id, passwordHash)
	if err == nil && n == 0 {
		return user.ErrNotFound
	}
	return err
}

func (r *UsersRepo) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	n, err := r.exec(ctx, "users.set_reset_token", `
		UPDATE users SET reset_token_hash = $2, reset_token_expiry = $3 WHERE id = $1
	`, id, tokenHash, expiresAt.UTC())
	if err == nil && n == 0 {
		return user.ErrNotFound
	}
	return err
}

func (r *UsersRepo) ClearResetToken(ctx context.Context, id, tokenHash string) error {
	_, err := r.exec(ctx, "users.clear_reset_token", `
		UPDATE users SET reset_token_hash = NULL, reset_token_expiry = NULL
		WHERE id = $1 AND reset_token_hash = $2
	`, id, tokenHash)
	return err
}

// RedeemResetToken is a single conditional UPDATE; the row lock serialises
// concurrent redemptions so only one can match.
func (r *UsersRepo) RedeemResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (user.User, error) {
	if tokenHash == "" {
		return user.User{}, user.ErrNotFound
	}

	return r.queryOne(ctx, "users.redeem_reset_token", `
		UPDATE users
		SET password_hash = $3, reset_token_hash = NULL, reset_token_expiry = NULL, updated_at = $2
		WHERE reset_token_hash = $1 AND reset_token_expiry > $2
		RETURNING `+userColumns,
		tokenHash, now.UTC(), newPasswordHash)
}

func (r *UsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	where := []string{"TRUE"}
	args := []any{}

	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		where = append(where, "role = $"+strconv.Itoa(len(args)))
	}
	if c := filter.Cursor; c != nil {
		args = append(args, c.CreatedAt, c.ID)
		where = append(where, "(created_at, id) < ($"+strconv.Itoa(len(args)-1)+", $"+strconv.Itoa(len(args))+")")
	}

	sql := `SELECT ` + userColumns + ` FROM users WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += " LIMIT $" + strconv.Itoa(len(args))
	}

	out := make([]user.User, 0)
	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	return out, err
}

func (r *UsersRepo) SetRole(ctx context.Context, id string, role user.Role) (user.User, error) {
	return r.queryOne(ctx, "users.set_role", `
		UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1
		RETURNING `+userColumns,
		id, string(role))
}

func (r *UsersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.exec(ctx, "users.clear_expired_reset_tokens", `
		UPDATE users SET reset_token_hash = NULL, reset_token_expiry = NULL
		WHERE reset_token_expiry <= $1
	`, now.UTC())
}
