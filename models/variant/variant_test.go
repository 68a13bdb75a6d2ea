package variant

import (
	"testing"

	vf "ldserver/api/models/constants/variant-format"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Run("should parse both syntaxes to the same variant", func(t *testing.T) {
		a, err := Parse("22:51241101_A/T")
		assert.Nil(t, err)
		b, err := Parse("22:51241101:A:T")
		assert.Nil(t, err)

		assert.Equal(t, a, b)
		assert.Equal(t, "22", a.Chrom)
		assert.Equal(t, 51241101, a.Pos)
	})

	t.Run("should reject malformed identifiers", func(t *testing.T) {
		for _, text := range []string{"", "22", "22:abc_A/T", "22:100_A", "22:100:A", "22:100_A/T/G", "22:+50_A/T", "22:050:A:T", "22:-5_A/T", "22:-5:A:T", "22: 5_A/T"} {
			_, err := Parse(text)
			assert.NotNil(t, err, text)
		}
	})

	t.Run("should reject chr prefix", func(t *testing.T) {
		_, err := Parse("chr22:100_A/T")
		assert.EqualError(t, err, "Variant chromosome should not contain 'chr': chr22:100_A/T")
	})

	t.Run("should reject alleles outside the alphabet", func(t *testing.T) {
		_, err := Parse("22:100_A/Z")
		assert.EqualError(t, err, "Variant 22:100_A/Z had invalid alleles")

		_, err = Parse("22:100:AX:T")
		assert.NotNil(t, err)

		v, err := Parse("22:100_ACGTNU/U")
		assert.Nil(t, err)
		assert.Equal(t, "ACGTNU", v.Ref)
	})
}

func TestFormatRoundTrip(t *testing.T) {
	for _, epacts := range []string{"22:51241101_A/T", "X:5_ACG/A", "1:1_N/U"} {
		colons := Translate(epacts, vf.COLONS)

		back, err := Normalize(colons, vf.COLONS)
		assert.Nil(t, err)
		assert.Equal(t, epacts, back)
		assert.Equal(t, epacts, Translate(epacts, vf.EPACTS))
	}

	for _, colons := range []string{"22:51241101:A:T", "X:5:ACG:A", "1:0:N:U"} {
		epacts, err := Normalize(colons, vf.COLONS)
		assert.Nil(t, err)
		assert.Equal(t, colons, Translate(epacts, vf.COLONS))
	}

	assert.Equal(t, "22:100:A:T", Translate("22:100_A/T", vf.COLONS))
	assert.Equal(t, "garbage", Translate("garbage", vf.COLONS))
}

func TestNormalize(t *testing.T) {
	_, err := Normalize("22:100_A/T", vf.COLONS)
	assert.NotNil(t, err)

	v, err := Normalize("22:100:A:T", vf.EPACTS)
	assert.Nil(t, err)
	assert.Equal(t, "22:100_A/T", v)
}
