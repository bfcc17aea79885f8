package http

import (
	"separation/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// ServerInterface lists the operations of api/openapi.json.
type ServerInterface interface {
	// (POST /orders)
	CreateOrder(ctx echo.Context) error
	// (GET /orders/active)
	GetActiveOrders(ctx echo.Context) error
	// (GET /orders/{order_id})
	GetOrder(ctx echo.Context, orderID kernel.UUID) error
	// (PATCH /orders/{order_id}/shipping)
	ChangeShipping(ctx echo.Context, orderID kernel.UUID) error
	// (POST /orders/{order_id}/finalize)
	FinalizeOrder(ctx echo.Context, orderID kernel.UUID) error
	// (POST /orders/{order_id}/lines/{line_id}/separate)
	SeparateLine(ctx echo.Context, orderID, lineID kernel.UUID) error
	// (POST /orders/{order_id}/lines/{line_id}/purchase-request)
	MarkForPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error
	// (POST /orders/{order_id}/lines/{line_id}/purchase-confirmation)
	ConfirmPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error
	// (POST /orders/{order_id}/lines/{line_id}/separate-after-purchase)
	SeparateAfterPurchase(ctx echo.Context, orderID, lineID kernel.UUID) error
	// (POST /orders/{order_id}/lines/{line_id}/substitute)
	SubstituteLine(ctx echo.Context, orderID, lineID kernel.UUID) error
	// (GET /purchases/queue)
	GetPurchaseQueue(ctx echo.Context) error
}

// ServerInterfaceWrapper converts path parameters before calling the server.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

type orderHandler func(ctx echo.Context, orderID kernel.UUID) error

type lineHandler func(ctx echo.Context, orderID, lineID kernel.UUID) error

func (w *ServerInterfaceWrapper) withOrder(h orderHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		orderID, err := pathUUID(ctx, "order_id")
		if err != nil {
			return err
		}
		return h(ctx, orderID)
	}
}

func (w *ServerInterfaceWrapper) withLine(h lineHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		orderID, err := pathUUID(ctx, "order_id")
		if err != nil {
			return err
		}
		lineID, err := pathUUID(ctx, "line_id")
		if err != nil {
			return err
		}
		return h(ctx, orderID, lineID)
	}
}

func pathUUID(ctx echo.Context, name string) (kernel.UUID, error) {
	var raw openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), &raw,
		runtime.BindStyledParameterOptions{
			ParamLocation: runtime.ParamLocationPath,
			Explode:       false,
			Required:      true,
		},
	)
	if err != nil {
		return kernel.UUID{}, &RequestInvalidError{Cause: err}
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return kernel.UUID{}, &RequestInvalidError{Cause: err}
	}
	return id, nil
}

// EchoRouter is satisfied by *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlersWithBaseURL mounts every contract operation under baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.POST(baseURL+"/orders", si.CreateOrder)
	router.GET(baseURL+"/orders/active", si.GetActiveOrders)
	router.GET(baseURL+"/orders/:order_id", w.withOrder(si.GetOrder))
	router.PATCH(baseURL+"/orders/:order_id/shipping", w.withOrder(si.ChangeShipping))
	router.POST(baseURL+"/orders/:order_id/finalize", w.withOrder(si.FinalizeOrder))
	router.POST(baseURL+"/orders/:order_id/lines/:line_id/separate", w.withLine(si.SeparateLine))
	router.POST(baseURL+"/orders/:order_id/lines/:line_id/purchase-request", w.withLine(si.MarkForPurchase))
	router.POST(baseURL+"/orders/:order_id/lines/:line_id/purchase-confirmation", w.withLine(si.ConfirmPurchase))
	router.POST(baseURL+"/orders/:order_id/lines/:line_id/separate-after-purchase",
		w.withLine(si.SeparateAfterPurchase))
	router.POST(baseURL+"/orders/:order_id/lines/:line_id/substitute", w.withLine(si.SubstituteLine))
	router.GET(baseURL+"/purchases/queue", si.GetPurchaseQueue)
}
