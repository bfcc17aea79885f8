package queries

import (
	"context"
	"database/sql"
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"
	"separation/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads the order detail view.
//
// Example:
//
//	handler := NewGetOrderQueryHandler(db, 5*time.Second)
//	query, _ := NewGetOrderQuery(orderID)
//
//	detail, err := handler.Handle(ctx, query)
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    return c.NoContent(http.StatusNotFound)
//	}
type GetOrderQueryHandler struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGetOrderQueryHandler creates the handler. A non-positive timeout keeps
// the default of 5s.
func NewGetOrderQueryHandler(db *gorm.DB, timeout time.Duration) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db, timeout: readTimeout(timeout)}
}

type orderHeaderRow struct {
	ID                uuid.UUID
	ExternalReference string
	Client            string
	Salesperson       string
	Notes             string
	LogisticsMode     string
	PackagingMode     string
	Status            string
	StartedAt         time.Time
	FinalizedAt       *time.Time
	FinalizedBy       *string
}

// Handle returns errs.ObjectNotFoundError for an unknown order id. The header
// and the lines are read from one repeatable-read snapshot, so a finalized
// order is never paired with lines from before its last transition.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	tx := h.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if tx.Error != nil {
		return GetOrderQueryResponse{}, errs.NewStorageUnavailableError("begin order read", tx.Error)
	}
	defer tx.Rollback()

	var headers []orderHeaderRow
	err := tx.Raw(`
		SELECT
			id,
			external_reference,
			client,
			salesperson,
			notes,
			logistics_mode,
			packaging_mode,
			status,
			started_at,
			finalized_at,
			finalized_by
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Scan(&headers).Error
	if err != nil {
		return GetOrderQueryResponse{}, errs.NewStorageUnavailableError("read order", err)
	}
	if len(headers) == 0 {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order_id", query.OrderID().String())
	}

	resp, err := headerToResponse(headers[0])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp.Lines, err = h.lines(tx, query.OrderID())
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	resolved := 0
	for _, l := range resp.Lines {
		if l.State.IsResolved() {
			resolved++
		}
	}
	resp.Progress, err = order.NewProgress(resolved, len(resp.Lines))
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	return resp, nil
}

func (h GetOrderQueryHandler) lines(tx *gorm.DB, orderID kernel.UUID) ([]OrderLineView, error) {
	rows, err := tx.Raw(`
		SELECT
			id,
			position,
			product_code,
			description,
			quantity,
			unit_price,
			line_total,
			state,
			separated_by,
			separated_at,
			sent_to_purchase_by,
			sent_to_purchase_at,
			purchase_confirmed_by,
			purchase_confirmed_at,
			COALESCE(substitute_description, ''),
			version
		FROM line_items
		WHERE order_id = ?
		ORDER BY position
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, errs.NewStorageUnavailableError("read order lines", err)
	}
	defer rows.Close()

	lines := make([]OrderLineView, 0)
	for rows.Next() {
		var (
			view                                  OrderLineView
			id                                    uuid.UUID
			state                                 string
			separatedBy, requestedBy, confirmedBy *string
			unitPrice, lineTotal                  decimal.Decimal
		)
		err = rows.Scan(
			&id,
			&view.Position,
			&view.ProductCode,
			&view.Description,
			&view.Quantity,
			&unitPrice,
			&lineTotal,
			&state,
			&separatedBy,
			&view.SeparatedAt,
			&requestedBy,
			&view.SentToPurchaseAt,
			&confirmedBy,
			&view.PurchaseConfirmedAt,
			&view.SubstituteDescription,
			&view.Version,
		)
		if err != nil {
			return nil, errs.NewStorageUnavailableError("scan order line", err)
		}

		lineID, idErr := kernel.UUIDFromBytes(id[:])
		if idErr != nil {
			return nil, idErr
		}
		view.ID = lineID

		view.State, err = order.ParseLineState(state)
		if err != nil {
			return nil, err
		}
		view.UnitPrice = unitPrice
		view.LineTotal = lineTotal
		view.HandledBy = handledBy(view.State, separatedBy, requestedBy, confirmedBy)
		view.SeparatedBy = deref(separatedBy)
		view.SentToPurchaseBy = deref(requestedBy)
		view.PurchaseConfirmedBy = deref(confirmedBy)
		view.SeparatedAt = utc(view.SeparatedAt)
		view.SentToPurchaseAt = utc(view.SentToPurchaseAt)
		view.PurchaseConfirmedAt = utc(view.PurchaseConfirmedAt)
		lines = append(lines, view)
	}

	if err = rows.Err(); err != nil {
		return nil, errs.NewStorageUnavailableError("read order lines", err)
	}
	return lines, nil
}

func headerToResponse(row orderHeaderRow) (GetOrderQueryResponse, error) {
	id, err := kernel.UUIDFromBytes(row.ID[:])
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	logistics, err := order.ParseLogisticsMode(row.LogisticsMode)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	packaging, err := order.ParsePackagingMode(row.PackagingMode)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	status, err := order.ParseStatus(row.Status)
	if err != nil {
		return GetOrderQueryResponse{}, err
	}

	resp := GetOrderQueryResponse{
		ID:                id,
		ExternalReference: row.ExternalReference,
		Client:            row.Client,
		Salesperson:       row.Salesperson,
		Notes:             row.Notes,
		Logistics:         logistics,
		Packaging:         packaging,
		Status:            status,
		StartedAt:         row.StartedAt.UTC(),
	}
	if row.FinalizedAt != nil {
		at := row.FinalizedAt.UTC()
		resp.FinalizedAt = &at
		resp.Elapsed = at.Sub(resp.StartedAt)
	}
	if row.FinalizedBy != nil {
		resp.FinalizedBy = *row.FinalizedBy
	}
	return resp, nil
}

// handledBy picks the stamp that matches the state, as LineItem.HandledBy does.
func handledBy(state order.LineState, separatedBy, requestedBy, confirmedBy *string) string {
	var by *string
	switch state {
	case order.Separated, order.Substituted:
		by = separatedBy
	case order.AwaitingPurchase:
		by = requestedBy
	case order.Purchased:
		by = confirmedBy
	case order.UnknownLineState, order.Pending:
	}
	if by == nil {
		return ""
	}
	return *by
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
