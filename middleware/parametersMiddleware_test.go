package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ldserver/api/models/faults"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectUnknownParameters(t *testing.T) {
	e := echo.New()
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	handler := RejectUnknownParameters(RegionParameters...)(ok)

	run := func(target string) error {
		ctx := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
		return handler(ctx)
	}

	t.Run("should pass known parameters", func(t *testing.T) {
		assert.Nil(t, run("/?chrom=22&start=1&stop=2&correlation=r&last=0:-1:-1:0"))
	})

	t.Run("should always report the first unknown parameter sent", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			err := run("/?chrom=22&foo=1&bar=2&baz=3")
			var fault *faults.Fault
			require.True(t, errors.As(err, &fault))
			assert.Equal(t, faults.Parsing, fault.Kind)
			assert.Equal(t, "Error while parsing 'foo' query parameter: Unknown parameter.", fault.Message)
		}
	})

	t.Run("should unescape parameter names", func(t *testing.T) {
		err := run("/?chrom=22&my%20param=1")
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "'my param'")
	})
}

func TestQueryNames(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "flag", "a"}, queryNames("b=1&a=2&&flag&a=3"))
	assert.Empty(t, queryNames(""))
}
