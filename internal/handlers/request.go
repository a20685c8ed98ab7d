package handlers

import (
	stderrors "errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// errNoCaller means RequireAuth did not run for this route
var errNoCaller = stderrors.New("no authenticated caller")

// callerID is the user id RequireAuth stored under "user_id"
func callerID(c echo.Context) (uuid.UUID, error) {
	if id, ok := c.Get("user_id").(uuid.UUID); ok && id != uuid.Nil {
		return id, nil
	}
	return uuid.Nil, errNoCaller
}

func callerIsAdmin(c echo.Context) bool {
	admin, _ := c.Get("is_admin").(bool)
	return admin
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}

// queryInt falls back to def when the parameter is absent or not a number
func queryInt(c echo.Context, name string, def int) int {
	if n, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return n
	}
	return def
}
