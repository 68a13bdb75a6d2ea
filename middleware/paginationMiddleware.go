package middleware

import (
	"strconv"

	"ldserver/api/contexts"
	"ldserver/api/models/faults"
	"ldserver/api/services/pagination"

	"github.com/labstack/echo"
)

// ValidatePaging reads `limit` (default and ceiling MaxPageSize) and the
// optional `last` cursor.
func ValidatePaging(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)
		maxPageSize := gc.Config.Api.MaxPageSize

		limit := maxPageSize
		if _, ok := c.QueryParams()["limit"]; ok {
			l, err := strconv.Atoi(c.QueryParam("limit"))
			if err != nil {
				return faults.Parsingf("limit", "Not a valid integer.")
			}
			if l <= 0 {
				return faults.Parsingf("limit", "Value must be greater than 0.")
			}
			if l < maxPageSize {
				limit = l
			}
		}

		last := pagination.Start()
		if _, ok := c.QueryParams()["last"]; ok {
			lastQP, err := mandateString(c, "last")
			if err != nil {
				return err
			}
			cursor, parseErr := pagination.Parse(lastQP)
			if parseErr != nil {
				return faults.Parsingf("last", "%s", parseErr.Error())
			}
			last = cursor
		}

		gc.Limit = limit
		gc.Last = last
		return next(c)
	}
}
