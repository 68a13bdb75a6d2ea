package errors

import (
	"errors"
	"net/http"

	"ldserver/api/models/dtos"
	"ldserver/api/models/faults"
)

/*
	Utility functions to facillitate returning error responses to HTTP clients
*/

const GenericInternalMessage = "An internal server error occurred."

// -- Simplest: 1 error with message
func CreateSimpleBadRequest(message string) (int, dtos.Envelope) {
	return http.StatusBadRequest, dtos.Failed(message)
}
func CreateSimpleNotFound(message string) (int, dtos.Envelope) {
	return http.StatusNotFound, dtos.Failed(message)
}
func CreateSimpleUnprocessable(message string) (int, dtos.Envelope) {
	return http.StatusUnprocessableEntity, dtos.Failed(message)
}
func CreateSimpleInternalServerError() (int, dtos.Envelope) {
	return http.StatusInternalServerError, dtos.Failed(GenericInternalMessage)
}

// --

// FromError renders any error raised while serving a request. Only fault
// messages reach the client; everything else becomes a generic 500.
func FromError(err error) (int, dtos.Envelope) {
	var f *faults.Fault
	if !errors.As(err, &f) {
		return CreateSimpleInternalServerError()
	}

	switch f.Kind {
	case faults.Empty:
		return http.StatusOK, dtos.Ok(nil)
	case faults.Internal:
		return CreateSimpleInternalServerError()
	default:
		return f.Status(), dtos.Failed(f.Message)
	}
}
