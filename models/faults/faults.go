package faults

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Internal Kind = iota
	// a valid query with nothing to return
	Empty
	NotFound
	Validation
	Parsing
	Unsupported
	EngineFault
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case NotFound:
		return "not-found"
	case Validation:
		return "validation"
	case Parsing:
		return "parsing"
	case Unsupported:
		return "unsupported"
	case EngineFault:
		return "engine"
	default:
		return "internal"
	}
}

// Fault carries a client-facing message. Cause is for server-side logs only.
type Fault struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Fault) Unwrap() error { return f.Cause }

func (f *Fault) Status() int {
	switch f.Kind {
	case Empty:
		return http.StatusOK
	case NotFound:
		return http.StatusNotFound
	case Validation, EngineFault:
		return http.StatusBadRequest
	case Parsing:
		return http.StatusUnprocessableEntity
	case Unsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, cause error, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func NotFoundf(format string, args ...interface{}) *Fault {
	return New(NotFound, format, args...)
}

func Validationf(format string, args ...interface{}) *Fault {
	return New(Validation, format, args...)
}

func Parsingf(field string, format string, args ...interface{}) *Fault {
	return New(Parsing, "Error while parsing '%s' query parameter: %s", field, fmt.Sprintf(format, args...))
}

// KindOf reports the kind of the first Fault in err's chain; plain errors are Internal.
func KindOf(err error) Kind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
