package api

import (
	"github.com/labstack/echo/v4"

	"CarbonDesk/internal/domain/models"
	xhttp "CarbonDesk/pkg/http"
)

func (h *Handler) ListUsers(c echo.Context) error {
	if h.svc.Users == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("user directory not configured"))
	}
	req := &models.ListUsersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.Users.List(c.Request().Context(), req.Page, req.PageSize)
	if err != nil {
		return h.fail(c, "list users", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *Handler) CreateUser(c echo.Context) error {
	if h.svc.Users == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("user directory not configured"))
	}
	req := &models.CreateUserRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	u, err := h.svc.Users.Create(c.Request().Context(), xhttp.ActorID(c), *req)
	if err != nil {
		return h.fail(c, "create user", err)
	}
	return xhttp.CreatedResponse(c, u)
}
