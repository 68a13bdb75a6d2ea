package groupType

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.GroupType = ""

	Gene   constants.GroupType = "GENE"
	Region constants.GroupType = "REGION"
)

func CastToGroupType(text string) constants.GroupType {
	switch strings.ToUpper(text) {
	case "GENE":
		return Gene
	case "REGION":
		return Region
	default:
		return Unknown
	}
}
