package application

import (
	"context"
	"errors"
	"fmt"

	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
)

type LevelService struct {
	factory ConnFactory
	repo    LevelRepo
	idem    IdempotencyStore
	uowOpts []UoWOption
	uow     *UnitOfWork
}

type Option func(*LevelService)

func WithIdempotency(s IdempotencyStore) Option { return func(svc *LevelService) { svc.idem = s } }
func WithUnitOfWork(opts ...UoWOption) Option {
	return func(svc *LevelService) { svc.uowOpts = append(svc.uowOpts, opts...) }
}

func NewLevelService(factory ConnFactory, repo LevelRepo, opts ...Option) *LevelService {
	s := &LevelService{factory: factory, repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	s.uow = NewUnitOfWork(factory, s.uowOpts...)
	return s
}

func (s *LevelService) Repo() LevelRepo { return s.repo }

// Apply runs ops as one unit of work. A key that is already reserved
// yields ErrConflict without touching the database; the key is released
// again when the unit of work fails.
func (s *LevelService) Apply(ctx context.Context, src config.DataSource, idemKey *string, ops ...Operation) error {
	if idemKey == nil || *idemKey == "" {
		return s.uow.Run(ctx, src, ops...)
	}
	key := "levels:batch:" + *idemKey
	ok, err := s.idem.TryReserve(ctx, key)
	if err != nil {
		return fmt.Errorf("idempotency: %w", err)
	}
	if !ok {
		return ErrConflict
	}
	if err := s.uow.Run(ctx, src, ops...); err != nil {
		if relErr := s.idem.Release(ctx, key); relErr != nil {
			return errors.Join(err, fmt.Errorf("idempotency release: %w", relErr))
		}
		return err
	}
	return nil
}

// List reads every level on a connection left in auto-commit mode.
func (s *LevelService) List(ctx context.Context, src config.DataSource) ([]domain.Level, error) {
	conn, err := s.factory.Acquire(ctx, src)
	if err != nil {
		return nil, &ConnectionError{Source: src.Name, Err: err}
	}
	defer conn.Close(ctx)
	return s.repo.QueryAll(ctx, conn)
}

// Demo inserts "meu" and "teu" in one transaction with validate checked
// between the two inserts.
func (s *LevelService) Demo(ctx context.Context, src config.DataSource, validate Validation) error {
	return s.uow.Run(ctx, src,
		InsertLevel(s.repo, "meu"),
		Check("demo", validate),
		InsertLevel(s.repo, "teu"),
	)
}
