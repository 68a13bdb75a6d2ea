package correlation

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.CorrelationKind = ""

	R          constants.CorrelationKind = "r"
	RSquare    constants.CorrelationKind = "rsquare"
	Covariance constants.CorrelationKind = "cov"
)

func CastToCorrelationKind(text string) constants.CorrelationKind {
	switch strings.ToLower(text) {
	case "r":
		return R
	case "rsquare":
		return RSquare
	case "cov":
		return Covariance
	default:
		return Unknown
	}
}

func IsKnownCorrelationKind(text string) bool {
	return CastToCorrelationKind(text) != Unknown
}

func Names() []string {
	return []string{string(R), string(RSquare), string(Covariance)}
}
