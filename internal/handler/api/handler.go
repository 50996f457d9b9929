package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	"CarbonDesk/internal/service/ratelimit"
	"CarbonDesk/internal/services/users"
	"CarbonDesk/internal/usecase"
	xhttp "CarbonDesk/pkg/http"
	applogger "CarbonDesk/pkg/logger"
	"CarbonDesk/pkg/util"
)

// Services groups the use cases served over HTTP. Users may be nil when no
// directory is configured.
type Services struct {
	Store     domrepo.SampleStore
	Series    *usecase.TimeSeriesUseCase
	Analytics *usecase.AnalyticsUseCase
	Overview  *usecase.OverviewUseCase
	Ranking   *usecase.RankingUseCase
	Orders    *usecase.OrderEngine
	Audit     *usecase.AuditUseCase
	Export    *usecase.ExportUseCase
	Users     *usecase.UsersUseCase
}

// Handler implements the CarbonDesk HTTP API on echo.
type Handler struct {
	svc          Services
	orderLimiter *ratelimit.Limiter
	logger       *applogger.Logger
	now          func() time.Time
}

func NewHandler(logger *applogger.Logger, svc Services, orderLimiter *ratelimit.Limiter) *Handler {
	if logger == nil {
		logger = applogger.Nop()
	}
	return &Handler{svc: svc, orderLimiter: orderLimiter, logger: logger, now: time.Now}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	a := g.Group("/assets/:asset")
	a.GET("/statistics", h.Statistics)
	a.GET("/seasonal", h.Seasonal)
	a.GET("/prediction", h.Prediction)
	a.GET("/timeseries", h.TimeSeries)
	a.POST("/samples", h.AppendSample)
	a.GET("/price-history", h.PriceHistory)
	a.GET("/overview", h.Overview)

	g.POST("/rankings", h.Rankings)
	g.GET("/compare", h.Compare)

	var orderMW []echo.MiddlewareFunc
	if h.orderLimiter != nil {
		orderMW = append(orderMW, h.orderLimiter.Middleware())
	}
	g.POST("/orders", h.PlaceOrder, orderMW...)
	g.GET("/orders/:id", h.GetOrder)

	g.POST("/export", h.Export)
	g.GET("/audit-logs", h.AuditLogs)

	g.GET("/admin/users", h.ListUsers)
	g.POST("/admin/users", h.CreateUser)
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.svc.Store.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", applogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *Handler) window(req models.WindowRequest) (usecase.Window, error) {
	from, to, ok := util.ParseWindow(req.From, req.To, h.now())
	if !ok {
		return usecase.Window{}, xhttp.BadRequestError("from/to must be RFC3339 or unix seconds with from <= to").
			WithParam("from", req.From).WithParam("to", req.To)
	}
	return usecase.Window{AssetID: req.Asset, From: from, To: to}, nil
}

func lookback(days int) time.Duration { return time.Duration(days) * 24 * time.Hour }

// fail maps domain errors onto the API envelope and logs server-side faults.
func (h *Handler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", applogger.String("path", c.Path()), applogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", applogger.String("code", appErr.Code), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	msg := err.Error()
	switch {
	case errors.Is(err, models.ErrOutOfOrderSample):
		return xhttp.ConflictError("ERR_OUT_OF_ORDER_SAMPLE", msg)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", msg)
	case errors.Is(err, models.ErrInvalidWeights):
		return xhttp.NewAppError("ERR_INVALID_WEIGHTS", "weights", msg, http.StatusBadRequest)
	case errors.Is(err, models.ErrSlippageExceeded):
		return xhttp.UnprocessableError("ERR_SLIPPAGE_EXCEEDED", msg)
	case errors.Is(err, models.ErrUnsupportedFormat):
		return xhttp.NewAppError("ERR_UNSUPPORTED_FORMAT", "format", msg, http.StatusBadRequest)
	case errors.Is(err, models.ErrInvalidArgument):
		return xhttp.BadRequestError(msg)
	case errors.Is(err, models.ErrAssetNotFound):
		return xhttp.NewAppError("ERR_ASSET_NOT_FOUND", "asset", msg, http.StatusNotFound)
	case errors.Is(err, models.ErrOrderNotFound):
		return xhttp.NewAppError("ERR_ORDER_NOT_FOUND", "id", msg, http.StatusNotFound)
	case errors.Is(err, users.ErrUpstream):
		return xhttp.BadGatewayError("user directory unavailable").WithError(err)
	case errors.Is(err, models.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("storage temporarily unavailable, retry later").WithError(err)
	default:
		return xhttp.InternalError("something went wrong").WithError(err)
	}
}
