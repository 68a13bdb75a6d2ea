package aggregation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ldserver/api/contexts"
	"ldserver/api/models/dtos"
	"ldserver/api/models/faults"
	"ldserver/api/services/formatter"

	"github.com/labstack/echo"
	"github.com/mitchellh/mapstructure"
)

func PostCovariance(c echo.Context) error {
	fmt.Printf("[%s] - PostCovariance hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	req, err := bindCovariance(c)
	if err != nil {
		return err
	}

	doc, format, err := gc.Orchestrator.Covariance(c.Request().Context(), req)
	if err != nil {
		return err
	}
	data, err := formatter.Aggregation(doc, format)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(data))
}

func GetMetadata(c echo.Context) error {
	fmt.Printf("[%s] - GetMetadata hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	metadata, err := gc.Orchestrator.Metadata(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dtos.Ok(metadata))
}

// bindCovariance accepts a JSON body or form data. In forms, `masks` is a
// JSON array or a comma separated list and `maskDefinitions` is JSON.
func bindCovariance(c echo.Context) (dtos.CovarianceRequest, error) {
	var req dtos.CovarianceRequest
	contentType := c.Request().Header.Get(echo.HeaderContentType)

	switch {
	case strings.HasPrefix(contentType, echo.MIMEApplicationJSON):
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return req, faults.Wrap(faults.Parsing, err, "Request body is not valid JSON for this endpoint.")
		}
		return req, nil

	case strings.HasPrefix(contentType, echo.MIMEApplicationForm), strings.HasPrefix(contentType, echo.MIMEMultipartForm):
		form, err := c.FormParams()
		if err != nil {
			return req, faults.Wrap(faults.Parsing, err, "Request form could not be read.")
		}

		fields := map[string]interface{}{}
		for key, values := range form {
			if len(values) > 0 && key != "masks" && key != "maskDefinitions" {
				fields[key] = values[0]
			}
		}
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &req,
		})
		if err != nil {
			return req, err
		}
		if err := decoder.Decode(fields); err != nil {
			return req, faults.Wrap(faults.Parsing, err, "Request form has invalid values.")
		}

		if masks := form.Get("masks"); masks != "" {
			if req.Masks, err = parseMaskIds(masks); err != nil {
				return req, faults.Wrap(faults.Parsing, err, "Field 'masks' must be a list of integers.")
			}
		}
		if defs := form.Get("maskDefinitions"); defs != "" {
			if err := json.Unmarshal([]byte(defs), &req.MaskDefinitions); err != nil {
				return req, faults.Wrap(faults.Parsing, err, "Field 'maskDefinitions' must be a JSON list.")
			}
		}
		return req, nil
	}

	return req, faults.New(faults.Unsupported, "Content-Type must be application/json or form data.")
}

func parseMaskIds(text string) ([]int, error) {
	var ids []int
	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		err := json.Unmarshal([]byte(text), &ids)
		return ids, err
	}
	for _, token := range strings.Split(text, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(token))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
