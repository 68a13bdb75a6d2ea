package chromosome

import (
	"strconv"
	"strings"
)

// Variant chromosomes are bare names ("22", "X"), never "chr22"
func HasChrPrefix(text string) bool {
	return strings.HasPrefix(strings.ToLower(text), "chr")
}

// Rank orders chromosomes naturally: 1..22, X, Y, M, then anything else
func Rank(text string) int {
	chromNumber, err := strconv.Atoi(text)
	if err == nil && chromNumber > 0 {
		return chromNumber
	}

	switch strings.ToUpper(text) {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	return 1000
}

func Less(a string, b string) bool {
	ra, rb := Rank(a), Rank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}
