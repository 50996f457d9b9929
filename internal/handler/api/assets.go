package api

import (
	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	xhttp "CarbonDesk/pkg/http"
	"CarbonDesk/pkg/util"
)

func (h *Handler) Statistics(c echo.Context) error {
	req := &models.StatisticsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Analytics.Statistics(c.Request().Context(), w)
	if err != nil {
		return h.fail(c, "statistics", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Seasonal(c echo.Context) error {
	req := &models.SeasonalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Analytics.Seasonal(c.Request().Context(), w, req.Period)
	if err != nil {
		return h.fail(c, "seasonal", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Prediction(c echo.Context) error {
	req := &models.PredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Analytics.Prediction(c.Request().Context(), w, req.Period, req.Horizon)
	if err != nil {
		return h.fail(c, "prediction", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) Overview(c echo.Context) error {
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Overview.GetOverview(c.Request().Context(), w, req.Period, req.Horizon)
	if err != nil {
		return h.fail(c, "overview", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) TimeSeries(c echo.Context) error {
	req := &models.TimeSeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Series.GetTimeSeries(c.Request().Context(), w, req.Limit)
	if err != nil {
		return h.fail(c, "timeseries", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) PriceHistory(c echo.Context) error {
	req := &models.PriceHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	w, err := h.window(req.WindowRequest)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	res, err := h.svc.Series.PriceHistory(c.Request().Context(), w, domrepo.NormalizeInterval(req.Interval))
	if err != nil {
		return h.fail(c, "price history", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *Handler) AppendSample(c echo.Context) error {
	req := &models.AppendSampleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ts, ok := util.ParseTime(req.Timestamp)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("timestamp must be RFC3339 or unix seconds").WithParam("timestamp", req.Timestamp))
	}
	s := models.Sample{Timestamp: ts.UTC(), Price: req.Price, Volume: req.Volume}
	if err := h.svc.Series.AppendAs(c.Request().Context(), xhttp.ActorID(c), req.Asset, "http", s); err != nil {
		return h.fail(c, "append sample", err)
	}
	return xhttp.CreatedResponse(c, models.AssetSample{AssetID: req.Asset, Sample: s})
}
