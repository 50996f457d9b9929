package api

import (
	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	xhttp "CarbonDesk/pkg/http"
)

func (h *Handler) Rankings(c echo.Context) error {
	req := &models.RankingRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Ranking.Rank(c.Request().Context(), req.Assets, req.Weights, lookback(req.LookbackDays))
	if err != nil {
		return h.fail(c, "rankings", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Compare always uses equal weights.
func (h *Handler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Ranking.Compare(c.Request().Context(), req.A, req.B, nil, lookback(req.LookbackDays))
	if err != nil {
		return h.fail(c, "compare", err)
	}
	return xhttp.SuccessResponse(c, res)
}
