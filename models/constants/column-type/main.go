package columnType

import (
	"ldserver/api/models/constants"
	"strings"
)

const (
	Unknown constants.ColumnType = ""

	Text        constants.ColumnType = "TEXT"
	Categorical constants.ColumnType = "CATEGORICAL"
	Integer     constants.ColumnType = "INTEGER"
	Float       constants.ColumnType = "FLOAT"
)

func CastToColumnType(text string) constants.ColumnType {
	switch strings.ToUpper(text) {
	case "TEXT", "STRING":
		return Text
	case "CATEGORICAL":
		return Categorical
	case "INTEGER", "INT":
		return Integer
	case "FLOAT":
		return Float
	default:
		return Unknown
	}
}

// columns describing pedigree structure rather than an analysable trait
var StructuralColumns = map[string]constants.ColumnType{
	"FID": Text,
	"IID": Text,
	"PID": Text,
	"MID": Text,
	"SEX": Categorical,
}
