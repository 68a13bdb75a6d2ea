package middleware

import (
	"strings"

	"ldserver/api/contexts"
	"ldserver/api/models/constants/correlation"
	"ldserver/api/models/faults"

	"github.com/labstack/echo"
)

func MandateCorrelationAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)

		correlationQP, err := mandateString(c, "correlation")
		if err != nil {
			return err
		}
		if !correlation.IsKnownCorrelationKind(correlationQP) {
			return faults.Parsingf("correlation", "Value must be one of the following: %s.", strings.Join(correlation.Names(), ", "))
		}

		gc.Correlation = correlation.CastToCorrelationKind(correlationQP)
		return next(c)
	}
}
