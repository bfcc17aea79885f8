package http

import (
	"errors"
	"time"

	"separation/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

type NewOrderRequest struct {
	ExternalReference string           `json:"external_reference" validate:"required,max=64"`
	Client            string           `json:"client"             validate:"required,max=200"`
	Salesperson       string           `json:"salesperson"        validate:"required,max=200"`
	Notes             string           `json:"notes"              validate:"max=2000"`
	Logistics         string           `json:"logistics"          validate:"required,logistics"`
	Packaging         string           `json:"packaging"          validate:"required,packaging"`
	Lines             []NewLineRequest `json:"lines"              validate:"required,min=1,dive"`
}

type NewLineRequest struct {
	ProductCode string          `json:"product_code" validate:"required,max=64"`
	Description string          `json:"description"  validate:"required,max=500"`
	Quantity    int             `json:"quantity"     validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"   validate:"gte=0"`
	LineTotal   decimal.Decimal `json:"line_total"   validate:"gte=0"`
}

// toSpec parses the modes. The packaging rule itself is checked by the
// command constructor so the mismatch error keeps its own type.
func (r NewOrderRequest) toSpec() (order.Spec, error) {
	logistics, logisticsErr := order.ParseLogisticsMode(r.Logistics)
	packaging, packagingErr := order.ParsePackagingMode(r.Packaging)
	if err := errors.Join(logisticsErr, packagingErr); err != nil {
		return order.Spec{}, err
	}

	lines := make([]order.LineSpec, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = order.LineSpec{
			ProductCode: l.ProductCode,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
	}
	return order.Spec{
		ExternalReference: r.ExternalReference,
		Client:            r.Client,
		Salesperson:       r.Salesperson,
		Notes:             r.Notes,
		Logistics:         logistics,
		Packaging:         packaging,
		Lines:             lines,
	}, nil
}

type ShippingRequest struct {
	Logistics string `json:"logistics" validate:"required,logistics"`
	Packaging string `json:"packaging" validate:"required,packaging"`
}

func (r ShippingRequest) modes() (order.LogisticsMode, order.PackagingMode, error) {
	logistics, logisticsErr := order.ParseLogisticsMode(r.Logistics)
	packaging, packagingErr := order.ParsePackagingMode(r.Packaging)
	return logistics, packaging, errors.Join(logisticsErr, packagingErr)
}

// SubstitutionRequest leaves a blank description to the command so it is
// reported as an empty substitute description.
type SubstitutionRequest struct {
	Description string `json:"description" validate:"max=500"`
}

type ProgressResponse struct {
	Resolved int     `json:"resolved"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

type LineResponse struct {
	ID                    string          `json:"id"`
	Position              int             `json:"position"`
	ProductCode           string          `json:"product_code"`
	Description           string          `json:"description"`
	Quantity              int             `json:"quantity"`
	UnitPrice             decimal.Decimal `json:"unit_price"`
	LineTotal             decimal.Decimal `json:"line_total"`
	State                 string          `json:"state"`
	HandledBy             string          `json:"handled_by,omitempty"`
	SeparatedBy           string          `json:"separated_by,omitempty"`
	SeparatedAt           *time.Time      `json:"separated_at,omitempty"`
	SentToPurchaseBy      string          `json:"sent_to_purchase_by,omitempty"`
	SentToPurchaseAt      *time.Time      `json:"sent_to_purchase_at,omitempty"`
	PurchaseConfirmedBy   string          `json:"purchase_confirmed_by,omitempty"`
	PurchaseConfirmedAt   *time.Time      `json:"purchase_confirmed_at,omitempty"`
	SubstituteDescription string          `json:"substitute_description,omitempty"`
	Version               int64           `json:"version"`
}

type OrderResponse struct {
	ID                string           `json:"id"`
	ExternalReference string           `json:"external_reference"`
	Client            string           `json:"client"`
	Salesperson       string           `json:"salesperson,omitempty"`
	Notes             string           `json:"notes,omitempty"`
	Logistics         string           `json:"logistics"`
	Packaging         string           `json:"packaging"`
	Status            string           `json:"status"`
	StartedAt         time.Time        `json:"started_at"`
	FinalizedAt       *time.Time       `json:"finalized_at,omitempty"`
	FinalizedBy       string           `json:"finalized_by,omitempty"`
	ElapsedSeconds    *float64         `json:"elapsed_seconds,omitempty"`
	Progress          ProgressResponse `json:"progress"`
	Lines             []LineResponse   `json:"lines"`
}

type TransitionResponse struct {
	OrderID  string           `json:"order_id"`
	Line     LineResponse     `json:"line"`
	Progress ProgressResponse `json:"progress"`
}

type OrderSummaryResponse struct {
	ID                string           `json:"id"`
	ExternalReference string           `json:"external_reference"`
	Client            string           `json:"client"`
	Logistics         string           `json:"logistics"`
	Packaging         string           `json:"packaging"`
	Progress          ProgressResponse `json:"progress"`
	StartedAt         time.Time        `json:"started_at"`
}

type PurchaseQueueItemResponse struct {
	LineID            string     `json:"line_id"`
	OrderID           string     `json:"order_id"`
	ExternalReference string     `json:"external_reference"`
	Client            string     `json:"client"`
	ProductCode       string     `json:"product_code"`
	Description       string     `json:"description"`
	Quantity          int        `json:"quantity"`
	State             string     `json:"state"`
	RequestedBy       string     `json:"requested_by"`
	RequestedAt       time.Time  `json:"requested_at"`
	ConfirmedBy       string     `json:"confirmed_by,omitempty"`
	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Missing   *int   `json:"missing,omitempty"`
	HandledBy string `json:"handled_by,omitempty"`
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// withStamp copies a stamp into the by/at pair of a line response.
func withStamp(stamp *order.Stamp, by *string, at **time.Time) {
	if stamp == nil {
		return
	}
	*by = stamp.By.String()
	*at = utcPtr(&stamp.At)
}
