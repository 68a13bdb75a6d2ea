package middleware

import (
	"ldserver/api/contexts"
	"ldserver/api/models/faults"
	"ldserver/api/models/variant"

	"github.com/labstack/echo"
)

// MandateVariantAttribute accepts EPACTS or COLONS ids and stores the
// EPACTS form.
func MandateVariantAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)

		variantQP, err := mandateString(c, "variant")
		if err != nil {
			return err
		}
		v, parseErr := variant.Parse(variantQP)
		if parseErr != nil {
			return faults.Parsingf("variant", "%s", parseErr.Error())
		}

		gc.Variant = v.Epacts()
		return next(c)
	}
}
