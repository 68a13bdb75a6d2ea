package ld

import (
	"fmt"
	"net/http"
	"time"

	"ldserver/api/contexts"
	resultShape "ldserver/api/models/constants/result-shape"
	"ldserver/api/models/dtos"
	"ldserver/api/services/formatter"
	"ldserver/api/services/pagination"
	"ldserver/api/services/query"

	"github.com/labstack/echo"
)

func ldQuery(gc *contexts.LdContext) query.LDQuery {
	return query.LDQuery{
		GenomeBuild: gc.Param("build"),
		Reference:   gc.Param("reference"),
		Population:  gc.Param("population"),
		Chrom:       gc.Chromosome,
		Start:       gc.Start,
		Stop:        gc.Stop,
		Variant:     gc.Variant,
		Correlation: gc.Correlation,
		Limit:       gc.Limit,
		Last:        gc.Last,
	}
}

func respond(gc *contexts.LdContext, data interface{}, cursor pagination.Cursor) error {
	req := gc.Request()
	next := pagination.NextURL(pagination.BaseURL(req, gc.Config.Api.ProxyPass), req.URL.RawQuery, cursor)
	return formatter.Render(gc, http.StatusOK, dtos.Paged(data, next), gc.Msgpack)
}

func GetRegionLD(c echo.Context) error {
	fmt.Printf("[%s] - GetRegionLD hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	res, err := gc.Orchestrator.RegionLD(c.Request().Context(), ldQuery(gc))
	if err != nil {
		return err
	}

	if gc.Shape == resultShape.Classic {
		return respond(gc, formatter.Classic(res.Pairs, gc.Precision), res.Cursor)
	}
	return respond(gc, formatter.Compact(res.Pairs, gc.Precision), res.Cursor)
}

func GetVariantLD(c echo.Context) error {
	fmt.Printf("[%s] - GetVariantLD hit!\n", time.Now())
	gc := c.(*contexts.LdContext)

	res, err := gc.Orchestrator.VariantLD(c.Request().Context(), ldQuery(gc))
	if err != nil {
		return err
	}

	if gc.Shape == resultShape.Classic {
		return respond(gc, formatter.Classic(res.Pairs, gc.Precision), res.Cursor)
	}
	return respond(gc, formatter.CompactVariant(res.Index, res.Pairs, gc.Precision), res.Cursor)
}
