// Package postgres provides the GORM-based Unit of Work over the order store.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	applied, err := uow.OrderRepository().UpdateLine(ctx, line, expectedState, expectedVersion)
//	if err != nil {
//	    return err
//	}
//	if !applied {
//	    // another actor won the race; nothing was written
//	}
//
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance holds at most one transaction and must not be
// shared between goroutines; concurrent requests each create their own.
package postgres

import (
	"context"

	"separation/internal/adapters/out/postgres/orderrepo"
	"separation/internal/core/ports"
	"separation/internal/pkg/errs"

	"gorm.io/gorm"
)

var _ ports.UnitOfWorkFactory = (*GormUnitOfWorkFactory)(nil)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork with no active transaction.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{db: f.db}
}

// GormUnitOfWork coordinates one database transaction.
type GormUnitOfWork struct {
	db *gorm.DB
	tx *gorm.DB
}

// Begin starts a transaction bound to ctx. Calling Begin twice is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	tx := uow.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return errs.NewStorageUnavailableError("begin transaction", tx.Error)
	}
	uow.tx = tx
	return nil
}

// Commit commits the current transaction. The unit of work can be reused
// with a new Begin afterwards.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		return errs.NewStorageUnavailableError("commit transaction", err)
	}
	return nil
}

// Rollback discards the current transaction. Without an active transaction it
// returns gorm.ErrInvalidTransaction, which deferred calls after Commit ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	return err
}

// OrderRepository returns a repository on the active transaction, or on the
// pool when no transaction was begun.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return orderrepo.NewGormOrderRepository(db)
}
