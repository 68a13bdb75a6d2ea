package middleware

import (
	"ldserver/api/contexts"

	"github.com/labstack/echo"
)

/*
	Echo middleware to ensure a `chrom` HTTP query parameter was provided
*/
func MandateChromosomeAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)

		chromQP, err := mandateString(c, "chrom")
		if err != nil {
			return err
		}

		gc.Chromosome = chromQP
		return next(c)
	}
}
