package filterOp

import (
	"ldserver/api/models/constants"
)

const (
	Unknown constants.FilterOp = ""

	Gte constants.FilterOp = "gte"
	Lte constants.FilterOp = "lte"
	Eq  constants.FilterOp = "eq"
)

func CastToFilterOp(text string) constants.FilterOp {
	switch text {
	case "gte":
		return Gte
	case "lte":
		return Lte
	case "eq":
		return Eq
	default:
		return Unknown
	}
}

// fields a region group may be filtered on, with their inclusive value bounds
var KnownFields = map[string][2]float64{
	"maf":    {0, 1},
	"pvalue": {0, 1},
	"score":  {-1e308, 1e308},
}

func Names() []string {
	return []string{string(Gte), string(Lte), string(Eq)}
}
