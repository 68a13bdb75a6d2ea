package pagination

import (
	"crypto/tls"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursor(t *testing.T) {
	t.Run("should round trip through its string form", func(t *testing.T) {
		c := Cursor{Cell: 12345678901, I: 3, J: 0, Page: 7}

		parsed, err := Parse(c.String())
		assert.Nil(t, err)
		assert.Equal(t, c, parsed)
		assert.Equal(t, "12345678901:3:0:7", c.String())
	})

	t.Run("should reject malformed cursors", func(t *testing.T) {
		for _, text := range []string{"", "1:2:3", "a:1:1:1", "1:x:1:1", "1:1:1:-1", "1:-2:0:0", "1:1:1:1:1", "274660049893:-1:0:1", "5:3:-1:2", "5:0:0:0"} {
			_, err := Parse(text)
			assert.NotNil(t, err, text)
		}
	})

	t.Run("should accept the start and terminal cursors", func(t *testing.T) {
		for _, text := range []string{"0:-1:-1:0", "0:-1:-1:3"} {
			_, err := Parse(text)
			assert.Nil(t, err, text)
		}
	})

	t.Run("should only continue when an index is set", func(t *testing.T) {
		assert.False(t, Start().HasNext())
		assert.True(t, Cursor{I: 0, J: -1}.HasNext())
		assert.True(t, Cursor{I: -1, J: 4}.HasNext())
	})
}

func TestMorton(t *testing.T) {
	assert.Equal(t, uint64(0), Morton(0, 0))
	assert.Equal(t, uint64(1), Morton(1, 0))
	assert.Equal(t, uint64(2), Morton(0, 1))
	assert.Equal(t, uint64(3), Morton(1, 1))

	for _, pair := range [][2]uint32{{0, 0}, {7, 3}, {51241, 51242}, {1 << 20, 3}} {
		i, j := Demorton(Morton(pair[0], pair[1]))
		assert.Equal(t, pair[0], i)
		assert.Equal(t, pair[1], j)
	}
}

func TestNextURL(t *testing.T) {
	t.Run("should keep parameters in order and replace last", func(t *testing.T) {
		next := NextURL("http://h/regions", "chrom=22&start=1&last=0:1:1:1&stop=100&correlation=rsquare", Cursor{Cell: 5, I: 2, J: 3, Page: 2})
		assert.Equal(t, "http://h/regions?chrom=22&start=1&stop=100&correlation=rsquare&last=5:2:3:2", next)
	})

	t.Run("should be empty on the terminal page", func(t *testing.T) {
		assert.Equal(t, "", NextURL("http://h/regions", "chrom=22", Cursor{I: -1, J: -1, Page: 4}))
	})

	t.Run("should build the base from the proxy prefix", func(t *testing.T) {
		req := httptest.NewRequest("GET", "http://internal:5000/genome_builds/GRCh37/references/1000G/populations/ALL/regions?chrom=22", nil)

		assert.Equal(t, "https://ld.example.org/api/genome_builds/GRCh37/references/1000G/populations/ALL/regions",
			BaseURL(req, "https://ld.example.org/api/"))
		assert.Equal(t, "http://internal:5000/genome_builds/GRCh37/references/1000G/populations/ALL/regions",
			BaseURL(req, ""))

		req.TLS = &tls.ConnectionState{}
		assert.Equal(t, "https://internal:5000/genome_builds/GRCh37/references/1000G/populations/ALL/regions",
			BaseURL(req, ""))
	})
}
