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

// GetPurchaseQueueQueryHandler lists purchase-routed lines, oldest request
// first.
type GetPurchaseQueueQueryHandler struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGetPurchaseQueueQueryHandler(db *gorm.DB, timeout time.Duration) GetPurchaseQueueQueryHandler {
	return GetPurchaseQueueQueryHandler{db: db, timeout: readTimeout(timeout)}
}

type purchaseQueueRow struct {
	LineID              uuid.UUID
	OrderID             uuid.UUID
	ExternalReference   string
	Client              string
	ProductCode         string
	Description         string
	Quantity            int
	State               string
	SentToPurchaseBy    string
	SentToPurchaseAt    time.Time
	PurchaseConfirmedBy *string
	PurchaseConfirmedAt *time.Time
}

func (h GetPurchaseQueueQueryHandler) Handle(
	ctx context.Context,
	query GetPurchaseQueueQuery,
) ([]GetPurchaseQueueQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var rows []purchaseQueueRow
	err := h.db.WithContext(ctx).Raw(`
		SELECT
			l.id AS line_id,
			l.order_id,
			o.external_reference,
			o.client,
			l.product_code,
			l.description,
			l.quantity,
			l.state,
			l.sent_to_purchase_by,
			l.sent_to_purchase_at,
			l.purchase_confirmed_by,
			l.purchase_confirmed_at
		FROM line_items l
		JOIN orders o ON o.id = l.order_id
		WHERE l.state IN ? AND o.status = ?
		ORDER BY l.sent_to_purchase_at, l.id
	`, []string{order.AwaitingPurchase.String(), order.Purchased.String()}, order.InProgress.String()).
		Scan(&rows).Error
	if err != nil {
		return nil, errs.NewStorageUnavailableError("read purchase queue", err)
	}

	queue := make([]GetPurchaseQueueQueryResponse, 0, len(rows))
	for _, row := range rows {
		item, convErr := row.toResponse()
		if convErr != nil {
			return nil, convErr
		}
		queue = append(queue, item)
	}
	return queue, nil
}

func (r purchaseQueueRow) toResponse() (GetPurchaseQueueQueryResponse, error) {
	lineID, err := kernel.UUIDFromBytes(r.LineID[:])
	if err != nil {
		return GetPurchaseQueueQueryResponse{}, err
	}
	orderID, err := kernel.UUIDFromBytes(r.OrderID[:])
	if err != nil {
		return GetPurchaseQueueQueryResponse{}, err
	}
	state, err := order.ParseLineState(r.State)
	if err != nil {
		return GetPurchaseQueueQueryResponse{}, err
	}

	item := GetPurchaseQueueQueryResponse{
		LineID:            lineID,
		OrderID:           orderID,
		ExternalReference: r.ExternalReference,
		Client:            r.Client,
		ProductCode:       r.ProductCode,
		Description:       r.Description,
		Quantity:          r.Quantity,
		State:             state,
		RequestedBy:       r.SentToPurchaseBy,
		RequestedAt:       r.SentToPurchaseAt.UTC(),
	}
	if r.PurchaseConfirmedBy != nil {
		item.ConfirmedBy = *r.PurchaseConfirmedBy
	}
	if r.PurchaseConfirmedAt != nil {
		at := r.PurchaseConfirmedAt.UTC()
		item.ConfirmedAt = &at
	}
	return item, nil
}
