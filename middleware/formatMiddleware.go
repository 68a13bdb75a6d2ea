package middleware

import (
	"strconv"

	"ldserver/api/contexts"
	resultShape "ldserver/api/models/constants/result-shape"
	"ldserver/api/models/faults"

	"github.com/labstack/echo"
)

// ValidateOutputFormat reads `format`, `precision` and `msgpack`.
func ValidateOutputFormat(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)

		shape := resultShape.CastToResultShape(c.QueryParam("format"))
		if shape == resultShape.Unknown {
			return faults.Parsingf("format", "Value must be one of the following: classic, compact.")
		}

		precision := gc.Config.Api.DefaultPrecision
		if precisionQP := c.QueryParam("precision"); len(precisionQP) > 0 {
			p, err := strconv.Atoi(precisionQP)
			if err != nil {
				return faults.Parsingf("precision", "Not a valid integer.")
			}
			if p < 0 {
				return faults.Parsingf("precision", "Value must be greater than or equal to 0.")
			}
			precision = p
		}

		useMsgpack := false
		if msgpackQP := c.QueryParam("msgpack"); len(msgpackQP) > 0 {
			b, err := strconv.ParseBool(msgpackQP)
			if err != nil {
				return faults.Parsingf("msgpack", "Not a valid boolean.")
			}
			useMsgpack = b
		}

		gc.Shape = shape
		gc.Precision = precision
		gc.Msgpack = useMsgpack
		return next(c)
	}
}
