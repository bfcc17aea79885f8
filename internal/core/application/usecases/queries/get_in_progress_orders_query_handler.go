package queries

import (
	"context"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetInProgressOrdersQueryHandler aggregates progress per order in one query.
type GetInProgressOrdersQueryHandler struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGetInProgressOrdersQueryHandler(db *gorm.DB, timeout time.Duration) GetInProgressOrdersQueryHandler {
	return GetInProgressOrdersQueryHandler{db: db, timeout: readTimeout(timeout)}
}

func (h GetInProgressOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetInProgressOrdersQuery,
) ([]GetInProgressOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.external_reference,
			o.client,
			o.logistics_mode,
			o.packaging_mode,
			o.started_at,
			COUNT(l.id) FILTER (WHERE l.state IN ?) AS resolved,
			COUNT(l.id) AS total
		FROM orders o
		JOIN line_items l ON l.order_id = o.id
		WHERE o.status = ?
		GROUP BY o.id
		ORDER BY o.started_at, o.id
	`, resolvedStates(), order.InProgress.String()).Rows()
	if err != nil {
		return nil, errs.NewStorageUnavailableError("read in-progress orders", err)
	}
	defer rows.Close()

	orders := make([]GetInProgressOrdersQueryResponse, 0)
	for rows.Next() {
		var (
			row                  GetInProgressOrdersQueryResponse
			id                   uuid.UUID
			logistics, packaging string
			resolved, total      int
		)
		err = rows.Scan(
			&id,
			&row.ExternalReference,
			&row.Client,
			&logistics,
			&packaging,
			&row.StartedAt,
			&resolved,
			&total,
		)
		if err != nil {
			return nil, errs.NewStorageUnavailableError("scan in-progress order", err)
		}

		orderID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		row.ID = orderID
		row.StartedAt = row.StartedAt.UTC()

		if row.Logistics, err = order.ParseLogisticsMode(logistics); err != nil {
			return nil, err
		}
		if row.Packaging, err = order.ParsePackagingMode(packaging); err != nil {
			return nil, err
		}
		if row.Progress, err = order.NewProgress(resolved, total); err != nil {
			return nil, err
		}
		orders = append(orders, row)
	}

	if err = rows.Err(); err != nil {
		return nil, errs.NewStorageUnavailableError("read in-progress orders", err)
	}
	return orders, nil
}

func resolvedStates() []string {
	return []string{order.Separated.String(), order.Substituted.String()}
}
