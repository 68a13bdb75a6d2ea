package middleware

import (
	"strconv"

	"ldserver/api/contexts"
	"ldserver/api/models/faults"

	"github.com/labstack/echo"
)

// MandateCalibratedBounds requires `start` >= 0 and `stop` > start.
func MandateCalibratedBounds(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.LdContext)

		start, err := mandateInt(c, "start")
		if err != nil {
			return err
		}
		if start < 0 {
			return faults.Parsingf("start", "Value must be greater than or equal to 0.")
		}

		stop, err := mandateInt(c, "stop")
		if err != nil {
			return err
		}
		if stop <= 0 {
			return faults.Parsingf("stop", "Value must be greater than 0.")
		}

		if stop <= start {
			return faults.Parsingf("start", "Start position must be greater than stop position.")
		}

		gc.Start = start
		gc.Stop = stop
		return next(c)
	}
}

func mandateString(c echo.Context, name string) (string, error) {
	values, ok := c.QueryParams()[name]
	if !ok {
		return "", faults.Parsingf(name, "Missing data for required field.")
	}
	if len(values) == 0 || len(values[0]) == 0 {
		return "", faults.Parsingf(name, "Value must be a non-empty string.")
	}
	return values[0], nil
}

func mandateInt(c echo.Context, name string) (int, error) {
	text, err := mandateString(c, name)
	if err != nil {
		return 0, err
	}
	i, conversionErr := strconv.Atoi(text)
	if conversionErr != nil {
		return 0, faults.Parsingf(name, "Not a valid integer.")
	}
	return i, nil
}
