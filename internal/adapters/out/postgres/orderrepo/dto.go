// Package orderrepo maps the order aggregate onto the orders and line_items
// tables and implements the conditional writes that keep concurrent
// transitions single-winner.
package orderrepo

import (
	"time"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const uniqueExternalReference = "ux_orders_external_reference"

// OrderDTO represents the orders table. Lines are a has-many association
// loaded in position order.
type OrderDTO struct {
	ID                uuid.UUID     `gorm:"type:uuid;primaryKey"`
	ExternalReference string        `gorm:"type:varchar(64);not null;uniqueIndex:ux_orders_external_reference"`
	Client            string        `gorm:"type:varchar(255);not null"`
	Salesperson       string        `gorm:"type:varchar(128);not null"`
	Notes             string        `gorm:"type:text;not null;default:''"`
	LogisticsMode     string        `gorm:"type:varchar(32);not null"`
	PackagingMode     string        `gorm:"type:varchar(8);not null"`
	Status            string        `gorm:"type:varchar(16);not null;index"`
	StartedAt         time.Time     `gorm:"not null"`
	FinalizedAt       *time.Time
	FinalizedBy       *string       `gorm:"type:varchar(128)"`
	Lines             []LineItemDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:RESTRICT"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO represents the line_items table. State and Version together form
// the compare-and-set key of every transition.
type LineItemDTO struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID               uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_line_items_order_position,priority:1"`
	Position              int             `gorm:"not null;uniqueIndex:ux_line_items_order_position,priority:2"`
	ProductCode           string          `gorm:"type:varchar(64);not null"`
	Description           string          `gorm:"type:varchar(255);not null"`
	Quantity              int             `gorm:"not null"`
	UnitPrice             decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	LineTotal             decimal.Decimal `gorm:"type:numeric(18,4);not null"`
	State                 string          `gorm:"type:varchar(24);not null;index"`
	SeparatedBy           *string         `gorm:"type:varchar(128)"`
	SeparatedAt           *time.Time
	SentToPurchaseBy      *string         `gorm:"type:varchar(128)"`
	SentToPurchaseAt      *time.Time
	PurchaseConfirmedBy   *string         `gorm:"type:varchar(128)"`
	PurchaseConfirmedAt   *time.Time
	SubstituteDescription *string         `gorm:"type:text"`
	Version               int64           `gorm:"not null;default:1"`
}

func (LineItemDTO) TableName() string {
	return "line_items"
}

func fromDomain(o *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:                o.ID().Bytes(),
		ExternalReference: o.ExternalReference(),
		Client:            o.Client(),
		Salesperson:       o.Salesperson(),
		Notes:             o.Notes(),
		LogisticsMode:     o.Logistics().String(),
		PackagingMode:     o.Packaging().String(),
		Status:            o.Status().String(),
		StartedAt:         o.StartedAt(),
		FinalizedAt:       o.FinalizedAt(),
	}
	if by := o.FinalizedBy(); by != nil {
		ref := by.String()
		dto.FinalizedBy = &ref
	}

	dto.Lines = make([]LineItemDTO, 0, len(o.Lines()))
	for _, l := range o.Lines() {
		dto.Lines = append(dto.Lines, lineFromDomain(l))
	}
	return dto
}

func lineFromDomain(l *order.LineItem) LineItemDTO {
	dto := LineItemDTO{
		ID:          l.ID().Bytes(),
		OrderID:     l.OrderID().Bytes(),
		Position:    l.Position(),
		ProductCode: l.ProductCode(),
		Description: l.Description(),
		Quantity:    l.Quantity(),
		UnitPrice:   l.UnitPrice(),
		LineTotal:   l.LineTotal(),
		State:       l.State().String(),
		Version:     l.Version(),
	}
	dto.SeparatedBy, dto.SeparatedAt = stampColumns(l.Separated())
	dto.SentToPurchaseBy, dto.SentToPurchaseAt = stampColumns(l.PurchaseRequested())
	dto.PurchaseConfirmedBy, dto.PurchaseConfirmedAt = stampColumns(l.PurchaseConfirmed())
	if d := l.SubstituteDescription(); d != "" {
		dto.SubstituteDescription = &d
	}
	return dto
}

// transitionColumns are the columns a line transition may change.
func transitionColumns(dto LineItemDTO) map[string]any {
	return map[string]any{
		"state":                  dto.State,
		"separated_by":           dto.SeparatedBy,
		"separated_at":           dto.SeparatedAt,
		"sent_to_purchase_by":    dto.SentToPurchaseBy,
		"sent_to_purchase_at":    dto.SentToPurchaseAt,
		"purchase_confirmed_by":  dto.PurchaseConfirmedBy,
		"purchase_confirmed_at":  dto.PurchaseConfirmedAt,
		"substitute_description": dto.SubstituteDescription,
		"version":                dto.Version,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	logistics, err := order.ParseLogisticsMode(dto.LogisticsMode)
	if err != nil {
		return nil, err
	}
	packaging, err := order.ParsePackagingMode(dto.PackagingMode)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	var finalizedBy *kernel.Actor
	if dto.FinalizedBy != nil {
		a, actorErr := kernel.NewActor(*dto.FinalizedBy)
		if actorErr != nil {
			return nil, actorErr
		}
		finalizedBy = &a
	}

	lines := make([]*order.LineItem, 0, len(dto.Lines))
	for _, ldto := range dto.Lines {
		l, lineErr := lineToDomain(ldto)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, l)
	}

	return order.RestoreOrder(order.RestoreOrderParams{
		ID:                id,
		ExternalReference: dto.ExternalReference,
		Client:            dto.Client,
		Salesperson:       dto.Salesperson,
		Notes:             dto.Notes,
		Logistics:         logistics,
		Packaging:         packaging,
		Status:            status,
		StartedAt:         dto.StartedAt.UTC(),
		FinalizedAt:       utcPtr(dto.FinalizedAt),
		FinalizedBy:       finalizedBy,
		Lines:             lines,
	})
}

func lineToDomain(dto LineItemDTO) (*order.LineItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	state, err := order.ParseLineState(dto.State)
	if err != nil {
		return nil, err
	}

	separated, err := stampFromColumns(dto.SeparatedBy, dto.SeparatedAt)
	if err != nil {
		return nil, err
	}
	requested, err := stampFromColumns(dto.SentToPurchaseBy, dto.SentToPurchaseAt)
	if err != nil {
		return nil, err
	}
	confirmed, err := stampFromColumns(dto.PurchaseConfirmedBy, dto.PurchaseConfirmedAt)
	if err != nil {
		return nil, err
	}

	var substitute string
	if dto.SubstituteDescription != nil {
		substitute = *dto.SubstituteDescription
	}

	return order.RestoreLineItem(order.RestoreLineItemParams{
		ID:       id,
		OrderID:  orderID,
		Position: dto.Position,
		Spec: order.LineSpec{
			ProductCode: dto.ProductCode,
			Description: dto.Description,
			Quantity:    dto.Quantity,
			UnitPrice:   dto.UnitPrice,
			LineTotal:   dto.LineTotal,
		},
		State:                 state,
		Separated:             separated,
		PurchaseRequested:     requested,
		PurchaseConfirmed:     confirmed,
		SubstituteDescription: substitute,
		Version:               dto.Version,
	})
}

func stampColumns(s *order.Stamp) (*string, *time.Time) {
	if s == nil {
		return nil, nil
	}
	by := s.By.String()
	at := s.At
	return &by, &at
}

func stampFromColumns(by *string, at *time.Time) (*order.Stamp, error) {
	if by == nil && at == nil {
		return nil, nil
	}
	if by == nil || at == nil {
		return nil, errPartialStamp
	}
	actor, err := kernel.NewActor(*by)
	if err != nil {
		return nil, err
	}
	return &order.Stamp{By: actor, At: at.UTC()}, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
