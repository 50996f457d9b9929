package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/usecase"
	xhttp "CarbonDesk/pkg/http"
)

func (h *Handler) Export(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p := usecase.ExportParams{
		Kind:     req.Kind,
		Format:   req.Format,
		Period:   req.Period,
		Horizon:  req.Horizon,
		Assets:   req.Assets,
		Weights:  req.Weights,
		A:        req.A,
		B:        req.B,
		Lookback: lookback(req.LookbackDays),
	}
	switch req.Kind {
	case usecase.KindStatistics, usecase.KindSeasonal, usecase.KindPrediction:
		if req.Asset == "" {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_REQUIRED", "asset", "asset is required for "+req.Kind, http.StatusBadRequest))
		}
		w, err := h.window(models.WindowRequest{Asset: req.Asset, From: req.From, To: req.To})
		if err != nil {
			return xhttp.AppErrorResponse(c, err)
		}
		p.Window = w
	}

	f, err := h.svc.Export.Export(c.Request().Context(), p)
	if err != nil {
		return h.fail(c, "export", err)
	}
	return xhttp.BlobResponse(c, f.ContentType, f.Filename, f.Payload)
}
