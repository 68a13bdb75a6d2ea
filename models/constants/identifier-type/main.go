package identifierType

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.IdentifierType = ""

	Ensembl     constants.IdentifierType = "ENSEMBL"
	Ncbi        constants.IdentifierType = "NCBI"
	Coordinates constants.IdentifierType = "COORDINATES"
)

func CastToIdentifierType(text string) constants.IdentifierType {
	switch strings.ToUpper(text) {
	case "ENSEMBL":
		return Ensembl
	case "NCBI":
		return Ncbi
	case "COORDINATES":
		return Coordinates
	default:
		return Unknown
	}
}
