package http

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// HeaderActorID carries the caller identity set by the upstream gateway.
const HeaderActorID = "X-Actor-ID"

// AnonymousActor is used when no identity header is present.
const AnonymousActor = "anonymous"

// ActorID returns the caller identity for audit purposes.
func ActorID(c echo.Context) string {
	if id := strings.TrimSpace(c.Request().Header.Get(HeaderActorID)); id != "" {
		return id
	}
	return AnonymousActor
}
