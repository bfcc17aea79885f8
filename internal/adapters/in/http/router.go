package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"separation/api"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// BaseURL prefixes every contract route and the websocket endpoint.
const BaseURL = "/api/v1"

// HealthCheck reports whether the service can reach its dependencies.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Server   *Server
	Contract *ContractValidator
	Metrics  http.Handler
	Health   HealthCheck
	Logger   *slog.Logger
	Tracer   trace.Tracer
	SkipDocs bool
}

// NewRouter assembles the echo instance serving the API, the websocket,
// health, metrics and swagger UI.
func NewRouter(cfg RouterConfig) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("separation/http")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = NewErrorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(tracing(tracer))

	e.GET("/health", health(cfg.Health))
	if cfg.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(cfg.Metrics))
	}
	if !cfg.SkipDocs {
		registerSwaggerDoc()
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	group := e.Group(BaseURL)
	if cfg.Contract != nil {
		group.Use(cfg.Contract.Middleware())
	}
	RegisterHandlersWithBaseURL(group, cfg.Server, "")
	group.GET("/ws", cfg.Server.Subscribe)

	return e
}

func health(check HealthCheck) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if check != nil {
			if err := check(ctx.Request().Context()); err != nil {
				return ctx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(ctx echo.Context) bool {
			return ctx.Path() == "/health" || ctx.Path() == "/metrics"
		},
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				logger.Info("request rejected", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			logger.Debug("request", attrs...)
			return nil
		},
	})
}

func tracing(tracer trace.Tracer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			req := ctx.Request()
			parent := otel.GetTextMapPropagator().Extract(req.Context(), propagation.HeaderCarrier(req.Header))
			spanCtx, span := tracer.Start(parent, req.Method+" "+ctx.Path(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", req.Method),
					attribute.String("http.route", ctx.Path()),
				),
			)
			defer span.End()

			ctx.SetRequest(req.WithContext(spanCtx))
			err := next(ctx)
			if err != nil {
				span.RecordError(err)
			}
			return err
		}
	}
}

type swaggerDoc struct{}

func (swaggerDoc) ReadDoc() string { return string(api.OpenAPI) }

var swaggerOnce sync.Once

func registerSwaggerDoc() {
	swaggerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{})
	})
}
