package variantFormat

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.VariantFormat = ""

	// chrom:pos_ref/alt, used internally and by the engine
	EPACTS constants.VariantFormat = "EPACTS"
	// chrom:pos:ref:alt
	COLONS constants.VariantFormat = "COLONS"
)

func CastToVariantFormat(text string) constants.VariantFormat {
	switch strings.ToUpper(text) {
	case "", "EPACTS":
		return EPACTS
	case "COLONS":
		return COLONS
	default:
		return Unknown
	}
}
