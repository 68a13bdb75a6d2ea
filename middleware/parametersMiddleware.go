package middleware

import (
	"net/url"
	"strings"

	"ldserver/api/models/faults"

	"github.com/labstack/echo"
)

var (
	RegionParameters  = []string{"chrom", "start", "stop", "correlation", "limit", "last", "format", "precision", "msgpack"}
	VariantParameters = append([]string{"variant"}, RegionParameters...)
)

// RejectUnknownParameters fails with 422 on the first query parameter
// outside allowed, in the order the client sent them.
func RejectUnknownParameters(allowed ...string) echo.MiddlewareFunc {
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, name := range queryNames(c.Request().URL.RawQuery) {
				if !known[name] {
					return faults.Parsingf(name, "Unknown parameter.")
				}
			}
			return next(c)
		}
	}
}

func queryNames(rawQuery string) []string {
	names := []string{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if i := strings.Index(pair, "="); i >= 0 {
			name = pair[:i]
		}
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		names = append(names, name)
	}
	return names
}
