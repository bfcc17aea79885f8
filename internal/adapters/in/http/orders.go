package http

import (
	"net/http"

	"separation/internal/core/application/usecases/commands"
	"separation/internal/core/application/usecases/queries"
	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/labstack/echo/v4"
)

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}

	var req NewOrderRequest
	if err = bindAndValidate(ctx, &req); err != nil {
		return err
	}
	spec, err := req.toSpec()
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), spec, actor)
	if err != nil {
		return err
	}
	created, err := s.handlers.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, orderResponseOf(created))
}

// GetOrder handles GET /api/v1/orders/{order_id}.
func (s *Server) GetOrder(ctx echo.Context, orderID kernel.UUID) error {
	query, err := queries.NewGetOrderQuery(orderID)
	if err != nil {
		return err
	}
	view, err := s.handlers.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, orderResponseOfView(view))
}

// GetActiveOrders handles GET /api/v1/orders/active.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	rows, err := s.handlers.GetActiveOrders.Handle(ctx.Request().Context(), queries.NewGetInProgressOrdersQuery())
	if err != nil {
		return err
	}
	response := make([]OrderSummaryResponse, len(rows))
	for i, row := range rows {
		response[i] = OrderSummaryResponse{
			ID:                row.ID.String(),
			ExternalReference: row.ExternalReference,
			Client:            row.Client,
			Logistics:         row.Logistics.String(),
			Packaging:         row.Packaging.String(),
			Progress:          progressResponseOf(row.Progress),
			StartedAt:         row.StartedAt.UTC(),
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// GetPurchaseQueue handles GET /api/v1/purchases/queue.
func (s *Server) GetPurchaseQueue(ctx echo.Context) error {
	rows, err := s.handlers.GetPurchaseQueue.Handle(ctx.Request().Context(), queries.NewGetPurchaseQueueQuery())
	if err != nil {
		return err
	}
	response := make([]PurchaseQueueItemResponse, len(rows))
	for i, row := range rows {
		response[i] = PurchaseQueueItemResponse{
			LineID:            row.LineID.String(),
			OrderID:           row.OrderID.String(),
			ExternalReference: row.ExternalReference,
			Client:            row.Client,
			ProductCode:       row.ProductCode,
			Description:       row.Description,
			Quantity:          row.Quantity,
			State:             row.State.String(),
			RequestedBy:       row.RequestedBy,
			RequestedAt:       row.RequestedAt.UTC(),
			ConfirmedBy:       row.ConfirmedBy,
			ConfirmedAt:       utcPtr(row.ConfirmedAt),
		}
	}
	return ctx.JSON(http.StatusOK, response)
}

// ChangeShipping handles PATCH /api/v1/orders/{order_id}/shipping.
func (s *Server) ChangeShipping(ctx echo.Context, orderID kernel.UUID) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}

	var req ShippingRequest
	if err = bindAndValidate(ctx, &req); err != nil {
		return err
	}
	logistics, packaging, err := req.modes()
	if err != nil {
		return err
	}

	cmd, err := commands.NewChangeShippingCommand(orderID, logistics, packaging, actor)
	if err != nil {
		return err
	}
	changed, err := s.handlers.ChangeShipping.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, orderResponseOf(changed))
}

// FinalizeOrder handles POST /api/v1/orders/{order_id}/finalize.
func (s *Server) FinalizeOrder(ctx echo.Context, orderID kernel.UUID) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}
	cmd, err := commands.NewFinalizeOrderCommand(orderID, actor)
	if err != nil {
		return err
	}
	res, err := s.handlers.FinalizeOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, orderResponseOf(res.Order))
}

// SeparateLine handles POST /api/v1/orders/{order_id}/lines/{line_id}/separate.
func (s *Server) SeparateLine(ctx echo.Context, orderID, lineID kernel.UUID) error {
	return s.transition(ctx, orderID, lineID, commands.NewSeparateLineCommand)
}

// MarkForPurchase handles POST .../lines/{line_id}/purchase-request.
func (s *Server) MarkForPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error {
	return s.transition(ctx, orderID, lineID, commands.NewMarkForPurchaseCommand)
}

// ConfirmPurchase handles POST .../lines/{line_id}/purchase-confirmation.
func (s *Server) ConfirmPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error {
	return s.transition(ctx, orderID, lineID, commands.NewConfirmPurchaseCommand)
}

// SeparateAfterPurchase handles POST .../lines/{line_id}/separate-after-purchase.
func (s *Server) SeparateAfterPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error {
	return s.transition(ctx, orderID, lineID, commands.NewSeparateAfterPurchaseCommand)
}

// SubstituteLine handles POST .../lines/{line_id}/substitute.
func (s *Server) SubstituteLine(ctx echo.Context, orderID, lineID kernel.UUID) error {
	var req SubstitutionRequest
	if err := bindAndValidate(ctx, &req); err != nil {
		return err
	}
	return s.transition(ctx, orderID, lineID,
		func(orderID, lineID kernel.UUID, actor kernel.Actor) (commands.TransitionLineCommand, error) {
			return commands.NewSubstituteLineCommand(orderID, lineID, actor, req.Description)
		},
	)
}

type transitionConstructor func(orderID, lineID kernel.UUID, actor kernel.Actor) (commands.TransitionLineCommand, error)

func (s *Server) transition(ctx echo.Context, orderID, lineID kernel.UUID, newCommand transitionConstructor) error {
	actor, err := actorOf(ctx)
	if err != nil {
		return err
	}
	cmd, err := newCommand(orderID, lineID, actor)
	if err != nil {
		return err
	}
	res, err := s.handlers.TransitionLine.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TransitionResponse{
		OrderID:  orderID.String(),
		Line:     lineResponseOf(res.Line),
		Progress: progressResponseOf(res.Progress),
	})
}

func orderResponseOf(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID().String(),
		ExternalReference: o.ExternalReference(),
		Client:            o.Client(),
		Salesperson:       o.Salesperson(),
		Notes:             o.Notes(),
		Logistics:         o.Logistics().String(),
		Packaging:         o.Packaging().String(),
		Status:            o.Status().String(),
		StartedAt:         o.StartedAt().UTC(),
		FinalizedAt:       utcPtr(o.FinalizedAt()),
		Progress:          progressResponseOf(o.Progress()),
		Lines:             make([]LineResponse, 0, len(o.Lines())),
	}
	if by := o.FinalizedBy(); by != nil {
		resp.FinalizedBy = by.String()
	}
	if o.IsFinalized() {
		elapsed := o.Elapsed().Seconds()
		resp.ElapsedSeconds = &elapsed
	}
	for _, l := range o.Lines() {
		resp.Lines = append(resp.Lines, lineResponseOf(l))
	}
	return resp
}

func orderResponseOfView(v queries.GetOrderQueryResponse) OrderResponse {
	resp := OrderResponse{
		ID:                v.ID.String(),
		ExternalReference: v.ExternalReference,
		Client:            v.Client,
		Salesperson:       v.Salesperson,
		Notes:             v.Notes,
		Logistics:         v.Logistics.String(),
		Packaging:         v.Packaging.String(),
		Status:            v.Status.String(),
		StartedAt:         v.StartedAt.UTC(),
		FinalizedAt:       utcPtr(v.FinalizedAt),
		FinalizedBy:       v.FinalizedBy,
		Progress:          progressResponseOf(v.Progress),
		Lines:             make([]LineResponse, len(v.Lines)),
	}
	if v.Status == order.Finalized {
		elapsed := v.Elapsed.Seconds()
		resp.ElapsedSeconds = &elapsed
	}
	for i, l := range v.Lines {
		resp.Lines[i] = LineResponse{
			ID:                    l.ID.String(),
			Position:              l.Position,
			ProductCode:           l.ProductCode,
			Description:           l.Description,
			Quantity:              l.Quantity,
			UnitPrice:             l.UnitPrice,
			LineTotal:             l.LineTotal,
			State:                 l.State.String(),
			HandledBy:             l.HandledBy,
			SeparatedBy:           l.SeparatedBy,
			SeparatedAt:           utcPtr(l.SeparatedAt),
			SentToPurchaseBy:      l.SentToPurchaseBy,
			SentToPurchaseAt:      utcPtr(l.SentToPurchaseAt),
			PurchaseConfirmedBy:   l.PurchaseConfirmedBy,
			PurchaseConfirmedAt:   utcPtr(l.PurchaseConfirmedAt),
			SubstituteDescription: l.SubstituteDescription,
			Version:               l.Version,
		}
	}
	return resp
}

func lineResponseOf(l *order.LineItem) LineResponse {
	resp := LineResponse{
		ID:                    l.ID().String(),
		Position:              l.Position(),
		ProductCode:           l.ProductCode(),
		Description:           l.Description(),
		Quantity:              l.Quantity(),
		UnitPrice:             l.UnitPrice(),
		LineTotal:             l.LineTotal(),
		State:                 l.State().String(),
		HandledBy:             l.HandledBy(),
		SubstituteDescription: l.SubstituteDescription(),
		Version:               l.Version(),
	}
	withStamp(l.Separated(), &resp.SeparatedBy, &resp.SeparatedAt)
	withStamp(l.PurchaseRequested(), &resp.SentToPurchaseBy, &resp.SentToPurchaseAt)
	withStamp(l.PurchaseConfirmed(), &resp.PurchaseConfirmedBy, &resp.PurchaseConfirmedAt)
	return resp
}

func progressResponseOf(p order.Progress) ProgressResponse {
	return ProgressResponse{
		Resolved: p.Resolved(),
		Total:    p.Total(),
		Percent:  p.Percent(),
	}
}
