package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"separation/internal/core/domain/model/kernel"
	"separation/internal/core/domain/model/order"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ActorHeader carries the operator performing a mutation. Authentication
// happens upstream; the value is trusted as given.
const ActorHeader = "X-Actor"

// RequestValidator adapts validator/v10 to echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("logistics", func(fl validator.FieldLevel) bool {
		_, err := order.ParseLogisticsMode(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("packaging", func(fl validator.FieldLevel) bool {
		_, err := order.ParsePackagingMode(fl.Field().String())
		return err == nil
	})

	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return &RequestInvalidError{Cause: err}
	}
	return nil
}

// RequestInvalidError is a request rejected before reaching a use case.
type RequestInvalidError struct {
	Cause error
}

func (e *RequestInvalidError) Error() string {
	var fieldErrs validator.ValidationErrors
	if errors.As(e.Cause, &fieldErrs) {
		parts := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
		}
		return "request is invalid: " + strings.Join(parts, "; ")
	}
	return "request is invalid: " + e.Cause.Error()
}

func (e *RequestInvalidError) Unwrap() error {
	return e.Cause
}

func bindAndValidate(ctx echo.Context, out any) error {
	if err := ctx.Bind(out); err != nil {
		return &RequestInvalidError{Cause: err}
	}
	return ctx.Validate(out)
}

func actorOf(ctx echo.Context) (kernel.Actor, error) {
	return kernel.NewActor(ctx.Request().Header.Get(ActorHeader))
}

// ContractValidator checks requests against the OpenAPI document before they
// reach a handler. Paths the document does not describe pass through.
type ContractValidator struct {
	doc    *openapi3.T
	router routers.Router
}

func NewContractValidator(spec []byte) (*ContractValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err = doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAPI router: %w", err)
	}
	return &ContractValidator{doc: doc, router: router}, nil
}

func (v *ContractValidator) Document() *openapi3.T {
	return v.doc
}

func (v *ContractValidator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			route, pathParams, err := v.router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrPathNotFound) || errors.Is(err, routers.ErrMethodNotAllowed) {
					return next(ctx)
				}
				return echo.NewHTTPError(http.StatusBadRequest, err.Error())
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					MultiError: true,
				},
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return &RequestInvalidError{Cause: err}
			}
			return next(ctx)
		}
	}
}
