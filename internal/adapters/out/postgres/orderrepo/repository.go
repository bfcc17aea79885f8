package orderrepo

import (
	"context"
	"errors"
	"fmt"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/core/ports"
	"separation/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

var errPartialStamp = errs.NewValueIsInvalidErrorWithCause(
	"line item stamp is invalid",
	errors.New("actor and timestamp columns must be both set or both null"),
)

var resolvedStates = []string{order.Separated.String(), order.Substituted.String()}

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a repository bound to db, which may be a
// transaction.
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

var _ ports.OrderRepository = (*GormOrderRepository)(nil)

// Add inserts the order and its lines in one statement batch.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return storageError("add order", err)
	}
	return nil
}

// Get loads an order with its lines sorted by position.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order_id", id.String())
		}
		return nil, storageError("get order", err)
	}

	return toDomain(dto)
}

// GetLine loads one line of an order.
func (r *GormOrderRepository) GetLine(ctx context.Context, orderID, lineID kernel.UUID) (*order.LineItem, error) {
	if err := errors.Join(orderID.Validate(), lineID.Validate()); err != nil {
		return nil, err
	}

	var dto LineItemDTO
	err := r.db.WithContext(ctx).
		First(&dto, "id = ? AND order_id = ?", lineID.Bytes(), orderID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("line_id", lineID.String())
		}
		return nil, storageError("get line", err)
	}

	return lineToDomain(dto)
}

// UpdateLine is the compare-and-set of a line transition. The row is written
// only while it still holds expectedState and expectedVersion and its order is
// in progress, so of several concurrent writers starting from the same
// snapshot exactly one sees true.
func (r *GormOrderRepository) UpdateLine(
	ctx context.Context,
	line *order.LineItem,
	expectedState order.LineState,
	expectedVersion int64,
) (bool, error) {
	if err := line.Validate(); err != nil {
		return false, err
	}

	dto := lineFromDomain(line)
	result := r.db.WithContext(ctx).
		Model(&LineItemDTO{}).
		Where("id = ? AND order_id = ? AND state = ? AND version = ?",
			dto.ID, dto.OrderID, expectedState.String(), expectedVersion).
		Where("EXISTS (SELECT 1 FROM orders WHERE orders.id = line_items.order_id AND orders.status = ?)",
			order.InProgress.String()).
		Updates(transitionColumns(dto))
	if result.Error != nil {
		return false, storageError("update line", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// Finalize writes the finalization stamp while the order is in progress and
// every line is resolved.
func (r *GormOrderRepository) Finalize(ctx context.Context, aggregate *order.Order) (bool, error) {
	if err := aggregate.Validate(); err != nil {
		return false, err
	}
	if !aggregate.IsFinalized() {
		return false, errs.NewValueIsInvalidErrorWithCause(
			"order status is invalid",
			fmt.Errorf("order %s is %s", aggregate.ID(), aggregate.Status()),
		)
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", dto.ID, order.InProgress.String()).
		Where("NOT EXISTS (SELECT 1 FROM line_items WHERE line_items.order_id = orders.id AND line_items.state NOT IN ?)",
			resolvedStates).
		Updates(map[string]any{
			"status":       dto.Status,
			"finalized_at": dto.FinalizedAt,
			"finalized_by": dto.FinalizedBy,
		})
	if result.Error != nil {
		return false, storageError("finalize order", result.Error)
	}

	return result.RowsAffected == 1, nil
}

// UpdateShipping writes logistics and packaging of an in-progress order.
func (r *GormOrderRepository) UpdateShipping(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND status = ?", dto.ID, order.InProgress.String()).
		Updates(map[string]any{
			"logistics_mode": dto.LogisticsMode,
			"packaging_mode": dto.PackagingMode,
		})
	if result.Error != nil {
		return storageError("update shipping", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.ErrAlreadyFinalized
	}
	return nil
}

// Progress counts the stored lines of an order.
func (r *GormOrderRepository) Progress(ctx context.Context, id kernel.UUID) (order.Progress, error) {
	if err := id.Validate(); err != nil {
		return order.Progress{}, err
	}

	var row struct {
		Resolved int
		Total    int
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FILTER (WHERE state IN ?) AS resolved, COUNT(*) AS total
		   FROM line_items
		  WHERE order_id = ?`,
		resolvedStates, id.Bytes(),
	).Scan(&row).Error
	if err != nil {
		return order.Progress{}, storageError("count progress", err)
	}
	if row.Total == 0 {
		return order.Progress{}, errs.NewObjectNotFoundError("order_id", id.String())
	}

	return order.NewProgress(row.Resolved, row.Total)
}

// storageError separates the unique violation on the external reference from
// every other driver fault.
func storageError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == uniqueExternalReference {
		return fmt.Errorf("%w: %s", ports.ErrDuplicateExternalReference, pgErr.Detail)
	}
	return errs.NewStorageUnavailableError(operation, err)
}
