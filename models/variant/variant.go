package variant

import (
	"fmt"
	"strconv"
	"strings"

	"ldserver/api/models/constants"
	"ldserver/api/models/constants/chromosome"
	vf "ldserver/api/models/constants/variant-format"
)

const alleleAlphabet = "ACGTNU"

type Variant struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

// Parse accepts either chrom:pos_ref/alt or chrom:pos:ref:alt and validates
// the chromosome name and alleles.
func Parse(text string) (Variant, error) {
	v, ok := split(text)
	if !ok {
		return Variant{}, fmt.Errorf("Invalid variant %s, should be of format: CHROM:POS_REF/ALT or CHROM:POS:REF:ALT", text)
	}

	if chromosome.HasChrPrefix(v.Chrom) {
		return Variant{}, fmt.Errorf("Variant chromosome should not contain 'chr': %s", text)
	}

	if !validAlleles(v.Ref) || !validAlleles(v.Alt) {
		return Variant{}, fmt.Errorf("Variant %s had invalid alleles", text)
	}

	return v, nil
}

func split(text string) (Variant, bool) {
	var (
		chrom, pos, ref, alt string
	)

	if strings.Contains(text, "_") {
		tokens := strings.SplitN(text, ":", 2)
		if len(tokens) != 2 {
			return Variant{}, false
		}
		chrom = tokens[0]

		posAlleles := strings.SplitN(tokens[1], "_", 2)
		if len(posAlleles) != 2 {
			return Variant{}, false
		}
		pos = posAlleles[0]

		alleles := strings.Split(posAlleles[1], "/")
		if len(alleles) != 2 {
			return Variant{}, false
		}
		ref, alt = alleles[0], alleles[1]
	} else {
		tokens := strings.Split(text, ":")
		if len(tokens) != 4 {
			return Variant{}, false
		}
		chrom, pos, ref, alt = tokens[0], tokens[1], tokens[2], tokens[3]
	}

	if !plainDigits(pos) || len(chrom) == 0 {
		return Variant{}, false
	}
	position, err := strconv.Atoi(pos)
	if err != nil {
		return Variant{}, false
	}

	return Variant{Chrom: chrom, Pos: position, Ref: ref, Alt: alt}, true
}

// plainDigits rejects signs and leading zeros, so positions print back
// exactly as they were given.
func plainDigits(pos string) bool {
	if pos == "" || (len(pos) > 1 && pos[0] == '0') {
		return false
	}
	for _, r := range pos {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validAlleles(allele string) bool {
	if len(allele) == 0 {
		return false
	}
	for _, r := range allele {
		if !strings.ContainsRune(alleleAlphabet, r) {
			return false
		}
	}
	return true
}

func (v Variant) Epacts() string {
	return fmt.Sprintf("%s:%d_%s/%s", v.Chrom, v.Pos, v.Ref, v.Alt)
}

func (v Variant) Colons() string {
	return fmt.Sprintf("%s:%d:%s:%s", v.Chrom, v.Pos, v.Ref, v.Alt)
}

func (v Variant) Format(format constants.VariantFormat) string {
	if format == vf.COLONS {
		return v.Colons()
	}
	return v.Epacts()
}

// Normalize validates an identifier given in the declared format and returns
// its internal (EPACTS) form.
func Normalize(text string, format constants.VariantFormat) (string, error) {
	if format == vf.COLONS && strings.Contains(text, "_") {
		return "", fmt.Errorf("Invalid variant %s, should be of format: CHROM:POS:REF:ALT", text)
	}

	v, err := Parse(text)
	if err != nil {
		return "", err
	}
	return v.Epacts(), nil
}

// Translate rewrites an internal identifier into the requested format.
// Identifiers that cannot be parsed are returned untouched.
func Translate(epacts string, format constants.VariantFormat) string {
	if format != vf.COLONS {
		return epacts
	}
	v, ok := split(epacts)
	if !ok {
		return epacts
	}
	return v.Colons()
}

// Position extracts the position of an identifier without validating alleles.
func Position(text string) (string, int, bool) {
	v, ok := split(text)
	if !ok {
		return "", 0, false
	}
	return v.Chrom, v.Pos, true
}
