package api

import (
	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	xhttp "CarbonDesk/pkg/http"
	"CarbonDesk/pkg/util"
)

func (h *Handler) AuditLogs(c echo.Context) error {
	req := &models.AuditLogsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, ok := util.ParseWindow(req.From, req.To, h.now())
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("from/to must be RFC3339 or unix seconds with from <= to"))
	}
	rows, err := h.svc.Audit.Query(c.Request().Context(), models.AuditFilter{
		ActorID: req.Actor,
		Action:  req.Action,
		From:    from,
		To:      to,
		Limit:   req.Limit,
	})
	if err != nil {
		return h.fail(c, "audit logs", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
