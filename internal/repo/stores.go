// Package repo opens the stores selected by configuration. The drivers live
// in the memory, mongostore and postgres subpackages.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/db"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/geocoder89/sitehub/internal/repo/memory"
	"github.com/geocoder89/sitehub/internal/repo/mongostore"
	"github.com/geocoder89/sitehub/internal/repo/postgres"
	"github.com/geocoder89/sitehub/internal/site"
)

type Stores struct {
	Users identity.UserStore
	// Content is nil unless requested.
	Content site.Store

	checks  map[string]func(context.Context) error
	closers []func()
	mongo   *mongostore.Store
}

// Open connects the credential store and, when withContent is set, the
// content store. A mongo connection is shared when both use it.
func Open(ctx context.Context, cfg config.Config, prom *observability.Prom, withContent bool) (*Stores, error) {
	s := &Stores{checks: map[string]func(context.Context) error{}}

	if err := s.openUsers(ctx, cfg, prom); err != nil {
		s.Close()
		return nil, err
	}

	if withContent {
		if err := s.openContent(ctx, cfg, prom); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

func (s *Stores) openUsers(ctx context.Context, cfg config.Config, prom *observability.Prom) error {
	switch cfg.CredentialStore {
	case config.DriverMemory:
		users := memory.NewUsersRepo()
		s.Users = users
		s.checks["users"] = users.Ping

	case config.DriverMongo:
		m, err := s.mongoStore(ctx, cfg, prom)
		if err != nil {
			return err
		}
		s.Users = m.Users()

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DBURL)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		s.closers = append(s.closers, pool.Close)

		if err := db.Migrate(ctx, pool); err != nil {
			return err
		}
		s.Users = postgres.NewUsersRepo(pool, prom)
		s.checks["postgres"] = pool.Ping

	default:
		return fmt.Errorf("unknown credential store %q", cfg.CredentialStore)
	}
	return nil
}

func (s *Stores) openContent(ctx context.Context, cfg config.Config, prom *observability.Prom) error {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		s.Content = memory.NewContentRepo()

	case config.DriverMongo:
		m, err := s.mongoStore(ctx, cfg, prom)
		if err != nil {
			return err
		}
		s.Content = m.Content()

	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return nil
}

func (s *Stores) mongoStore(ctx context.Context, cfg config.Config, prom *observability.Prom) (*mongostore.Store, error) {
	if s.mongo != nil {
		return s.mongo, nil
	}

	m, err := mongostore.NewStore(ctx, cfg.MongoURI, cfg.MongoDB, prom)
	if err != nil {
		return nil, err
	}
	s.mongo = m
	s.checks["mongo"] = m.Ping
	s.closers = append(s.closers, func() { _ = m.Close() })
	return m, nil
}

// Checks returns a ping per open connection, keyed by name.
func (s *Stores) Checks() map[string]func(context.Context) error {
	out := make(map[string]func(context.Context) error, len(s.checks))
	for k, v := range s.checks {
		out[k] = v
	}
	return out
}

// Ping reports the first failing connection.
func (s *Stores) Ping(ctx context.Context) error {
	var errs []error
	for name, ping := range s.checks {
		if err := ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
