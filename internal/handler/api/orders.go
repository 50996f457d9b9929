package api

import (
	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/usecase"
	xhttp "CarbonDesk/pkg/http"
	applogger "CarbonDesk/pkg/logger"
)

// PlaceOrder answers 201 with the execution result for fills and rejections alike;
// only infrastructure failures produce an error envelope.
func (h *Handler) PlaceOrder(c echo.Context) error {
	req := &models.PlaceOrderRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	actor := xhttp.ActorID(c)
	res, err := h.svc.Orders.PlaceOrder(c.Request().Context(), usecase.PlaceOrderParams{
		ActorID:              actor,
		AssetID:              req.AssetID,
		Side:                 models.Side(req.Side),
		Amount:               req.Amount,
		SlippageTolerancePct: req.SlippageTolerancePct,
		ReferencePrice:       req.ReferencePrice,
	})
	if err != nil {
		return h.fail(c, "place order", err)
	}
	h.logger.Info("order placed",
		applogger.String("order_id", res.OrderID),
		applogger.String("actor", actor),
		applogger.String("asset", res.AssetID),
		applogger.String("status", string(res.Status)))
	return xhttp.CreatedResponse(c, res)
}

func (h *Handler) GetOrder(c echo.Context) error {
	req := &models.OrderLookupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.svc.Orders.Get(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "get order", err)
	}
	return xhttp.SuccessResponse(c, res)
}
