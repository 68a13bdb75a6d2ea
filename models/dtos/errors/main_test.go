package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"ldserver/api/models/faults"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	t.Run("should render client faults with their own message", func(t *testing.T) {
		status, body := FromError(fmt.Errorf("wrapped: %w", faults.NotFoundf("Genome build '%s' was not found.", "GRCh99")))

		assert.Equal(t, http.StatusNotFound, status)
		assert.Nil(t, body.Data)
		assert.Equal(t, "Genome build 'GRCh99' was not found.", *body.Error)
	})

	t.Run("should hide unexpected errors", func(t *testing.T) {
		status, body := FromError(errors.New("sql: connection refused at 10.0.0.3"))

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, GenericInternalMessage, *body.Error)
	})

	t.Run("should hide engine diagnostics", func(t *testing.T) {
		f := faults.Wrap(faults.EngineFault, errors.New("/srv/data/panel.sav: truncated"), "An error occurred during the computation.")
		status, body := FromError(f)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotContains(t, *body.Error, "/srv/data")
	})

	t.Run("should treat empty results as success", func(t *testing.T) {
		status, body := FromError(faults.New(faults.Empty, "no variants"))

		assert.Equal(t, http.StatusOK, status)
		assert.Nil(t, body.Error)
	})
}
