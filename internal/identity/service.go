package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/notifications"
	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/geocoder89/sitehub/internal/validation"
	"github.com/google/uuid"
)

// UserStore is the credential store. Every method addresses a single user
// document and is atomic on its own.
type UserStore interface {
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateProfile(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error)
	// UpdatePassword also clears any pending reset state.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ClearResetToken clears reset state only while tokenHash is still the stored one.
	ClearResetToken(ctx context.Context, id, tokenHash string) error
	// RedeemResetToken sets the new hash and clears reset state in one step,
	// matching only an unexpired token. user.ErrNotFound when nothing matches.
	RedeemResetToken(ctx context.Context, tokenHash string, now time.Time, newPasswordHash string) (user.User, error)
	List(ctx context.Context, filter user.ListFilter) ([]user.User, error)
	SetRole(ctx context.Context, id string, role user.Role) (user.User, error)
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) (bool, error)
}

type SessionIssuer interface {
	Issue(userID string) (string, time.Time, error)
}

type ResetTokenIssuer interface {
	Issue(now time.Time) (plain, hash string, expiresAt time.Time, err error)
	Hash(plain string) string
}

type Config struct {
	// DashboardURL is the front-end base the reset link points at.
	DashboardURL string
	SiteName     string
}

type Deps struct {
	Users    UserStore
	Hasher   PasswordHasher
	Sessions SessionIssuer
	Resets   ResetTokenIssuer
	Mailer   notifications.Mailer
	Log      *slog.Logger
	Prom     *observability.Prom
	Now      func() time.Time
}

// Session is what a successful register/login/reset hands back to the transport.
type Session struct {
	User      user.User
	Token     string
	ExpiresAt time.Time
}

type Service struct {
	cfg      Config
	users    UserStore
	hasher   PasswordHasher
	sessions SessionIssuer
	resets   ResetTokenIssuer
	mailer   notifications.Mailer
	log      *slog.Logger
	prom     *observability.Prom
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewService(cfg Config, deps Deps) *Service {
	if cfg.SiteName == "" {
		cfg.SiteName = "Sitehub"
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Service{
		cfg:      cfg,
		users:    deps.Users,
		hasher:   deps.Hasher,
		sessions: deps.Sessions,
		resets:   deps.Resets,
		mailer:   deps.Mailer,
		log:      deps.Log,
		prom:     deps.Prom,
		now:      deps.Now,
	}
}

func (s *Service) Register(ctx context.Context, in user.RegisterRequest) (Session, error) {
	in.Email = user.NormalizeEmail(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		s.record("register", "error")
		return Session{}, err
	}

	s.record("register", "ok")
	return s.startSession(u)
}

func (s *Service) Login(ctx context.Context, in user.LoginRequest) (Session, error) {
	in.Email = user.NormalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return Session{}, err
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, user.ErrNotFound) {
		// spend one compare so unknown emails cost the same as wrong passwords
		_, _ = s.hasher.Verify(in.Password, s.dummy())
		s.record("login", "invalid_credentials")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	ok, err := s.hasher.Verify(in.Password, u.PasswordHash)
	if err != nil {
		s.log.ErrorContext(ctx, "stored password hash unusable", "user_id", u.ID, "err", err)
		return Session{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.record("login", "invalid_credentials")
		s.log.WarnContext(ctx, "login failed", "user_id", u.ID)
		return Session{}, ErrInvalidCredentials
	}

	s.record("login", "ok")
	return s.startSession(u)
}

func (s *Service) Me(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) startSession(u user.User) (Session, error) {
	token, expiresAt, err := s.sessions.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			s.log.Error("dummy hash generation failed", "err", err)
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) record(op, result string) {
	if s.prom != nil {
		s.prom.AuthEventsTotal.WithLabelValues(op, result).Inc()
	}
}
