package mvc

import (
	"errors"
	"fmt"
	"net/http"

	"ldserver/api/models/dtos"
	errs "ldserver/api/models/dtos/errors"
	"ldserver/api/models/faults"

	"github.com/google/uuid"
	"github.com/labstack/echo"
)

// HTTPErrorHandler renders every error in the response envelope. Causes
// never reach the client; they are logged under an incident id instead.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		status   int
		envelope dtos.Envelope
		he       *echo.HTTPError
		f        *faults.Fault
	)
	switch {
	case errors.As(err, &he):
		status, envelope = he.Code, dtos.Failed(fmt.Sprint(he.Message))
	default:
		status, envelope = errs.FromError(err)
	}

	if status >= http.StatusInternalServerError || (errors.As(err, &f) && f.Cause != nil) {
		incident := uuid.New().String()
		c.Logger().Errorf("incident %s: %s %s: %v", incident, c.Request().Method, c.Request().URL.String(), err)
		if status >= http.StatusInternalServerError {
			envelope = dtos.Failed(fmt.Sprintf("%s Incident id: %s", errs.GenericInternalMessage, incident))
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, envelope)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}
