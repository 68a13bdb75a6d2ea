package resultShape

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.ResultShape = ""

	Classic constants.ResultShape = "classic"
	Compact constants.ResultShape = "compact"
)

func CastToResultShape(text string) constants.ResultShape {
	switch strings.ToLower(text) {
	case "", "compact":
		return Compact
	case "classic":
		return Classic
	default:
		return Unknown
	}
}
