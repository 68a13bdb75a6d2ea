package formatter

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	variantFormat "ldserver/api/models/constants/variant-format"
	"ldserver/api/models/dtos"
	"ldserver/api/services/engine"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func pair(v1 string, p1 int, v2 string, p2 int, value float64) engine.Pair {
	return engine.Pair{Variant1: v1, Chrom1: "22", Pos1: p1, Variant2: v2, Chrom2: "22", Pos2: p2, Value: value}
}

// a full upper triangle over four variants, in engine emission order
var triangle = []engine.Pair{
	pair("22:100_A/T", 100, "22:200_G/C", 200, 0.5),
	pair("22:100_A/T", 100, "22:300_C/T", 300, -0.25),
	pair("22:200_G/C", 200, "22:300_C/T", 300, 0.125),
	pair("22:100_A/T", 100, "22:400_A/G", 400, 0.333333),
	pair("22:200_G/C", 200, "22:400_A/G", 400, math.NaN()),
	pair("22:300_C/T", 300, "22:400_A/G", 400, 0.75),
}

func TestRound(t *testing.T) {
	assert.Equal(t, dtos.Value(0.33), Round(0.333333, 2))
	assert.Equal(t, dtos.Value(0.333333), Round(0.333333, 0))
	assert.True(t, Round(math.NaN(), 3).IsNaN())
}

func TestClassic(t *testing.T) {
	ld := Classic(triangle, 0)
	assert.Len(t, ld.Variant1, 6)
	assert.Equal(t, "22:400_A/G", ld.Variant2[5])
	assert.Equal(t, 300, ld.Position1[5])
	assert.Equal(t, dtos.Value(0.75), ld.Correlation[5])
}

func TestCompactMatchesClassic(t *testing.T) {
	ld := Compact(triangle, 0)

	assert.Equal(t, []string{"22:100_A/T", "22:200_G/C", "22:300_C/T", "22:400_A/G"}, ld.Variants)
	assert.Equal(t, []int{1, 2, 3, math.MinInt32}, ld.Offsets)
	assert.Len(t, ld.Correlations[0], 3)
	assert.Empty(t, ld.Correlations[3])
	assert.Nil(t, ld.Fillers)
	assert.Len(t, Expand(ld), len(triangle))

	// NaN values are genuine here, so compare against the classic rows directly
	classic := Classic(triangle, 0)
	got := map[[2]string]dtos.Value{}
	for i, values := range ld.Correlations {
		for k, v := range values {
			got[[2]string{ld.Variants[i], ld.Variants[ld.Offsets[i]+k]}] = v
		}
	}
	require.Len(t, got, len(classic.Variant1))
	for i := range classic.Variant1 {
		v, ok := got[[2]string{classic.Variant1[i], classic.Variant2[i]}]
		require.True(t, ok)
		if classic.Correlation[i].IsNaN() {
			assert.True(t, v.IsNaN())
		} else {
			assert.Equal(t, classic.Correlation[i], v)
		}
	}
}

func TestCompactFillsGaps(t *testing.T) {
	sparse := []engine.Pair{
		pair("22:100_A/T", 100, "22:200_G/C", 200, 0.5),
		pair("22:100_A/T", 100, "22:400_A/G", 400, 0.25),
		pair("22:200_G/C", 200, "22:300_C/T", 300, 0.1),
	}
	ld := Compact(sparse, 0)
	require.Len(t, ld.Correlations[0], 3)
	assert.True(t, ld.Correlations[0][1].IsNaN())
	assert.Equal(t, [][]int{{1}, {}, {}, {}}, ld.Fillers)

	assert.ElementsMatch(t, sparse, Expand(ld))
}

func TestCompactKeepsGenuineNaN(t *testing.T) {
	pairs := []engine.Pair{
		pair("22:100_A/T", 100, "22:200_G/C", 200, math.NaN()),
		pair("22:100_A/T", 100, "22:400_A/G", 400, 0.25),
		pair("22:200_G/C", 200, "22:300_C/T", 300, 0.1),
	}
	ld := Compact(pairs, 0)
	assert.Equal(t, [][]int{{1}, {}, {}, {}}, ld.Fillers)

	// survive the wire like a client would see them
	b, err := json.Marshal(ld)
	require.NoError(t, err)
	var decoded dtos.CompactLD
	require.NoError(t, json.Unmarshal(b, &decoded))

	expanded := Expand(decoded)
	classic := Classic(pairs, 0)
	require.Len(t, expanded, len(classic.Variant1))

	nan := 0
	for _, p := range expanded {
		if math.IsNaN(p.Value) {
			nan++
			assert.Equal(t, "22:200_G/C", p.Variant2)
		}
	}
	assert.Equal(t, 1, nan)
}

func TestCompactVariant(t *testing.T) {
	anchor := &engine.Anchor{Variant: "22:100_A/T", Chrom: "22", Pos: 100}
	ld := CompactVariant(anchor, triangle[:2], 1)

	assert.Equal(t, "22:100_A/T", ld.IndexVariant)
	assert.Equal(t, []string{"22:200_G/C", "22:300_C/T"}, ld.Variants)
	assert.Equal(t, []dtos.Value{0.5, -0.3}, ld.Correlations)
}

func TestRender(t *testing.T) {
	e := echo.New()
	payload := Compact(triangle, 3)

	t.Run("should encode json with nulls for NaN", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Render(ctx, http.StatusOK, dtos.Paged(payload, ""), false))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "", body["next"])
		assert.Contains(t, rec.Body.String(), "null")
	})

	t.Run("should encode msgpack", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, Render(ctx, http.StatusOK, dtos.Paged(payload, ""), true))
		assert.Equal(t, MIMEMsgpack, rec.Header().Get(echo.HeaderContentType))

		var decoded struct {
			Data dtos.CompactLD `msgpack:"data"`
			Next *string        `msgpack:"next"`
		}
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
		assert.Equal(t, payload.Variants, decoded.Data.Variants)
		assert.Equal(t, payload.Offsets, decoded.Data.Offsets)
		assert.True(t, decoded.Data.Correlations[1][1].IsNaN())
	})
}

func TestAggregation(t *testing.T) {
	doc := []byte(`{"data": {
		"variants": [{"variant": "22:100_A/T", "score": 1.5}],
		"groups": [{"group": "ZNF", "variants": ["22:100_A/T", "22:200_G/C"], "covariance": [1, 2, 3]}],
		"nSamples": 10
	}}`)

	t.Run("should rewrite variants to colons", func(t *testing.T) {
		data, err := Aggregation(doc, variantFormat.COLONS)
		require.NoError(t, err)

		b, _ := json.Marshal(data)
		assert.Contains(t, string(b), `"variant":"22:100:A:T"`)
		assert.Contains(t, string(b), `["22:100:A:T","22:200:G:C"]`)
		assert.NotContains(t, string(b), "_")
	})

	t.Run("should leave epacts untouched", func(t *testing.T) {
		data, err := Aggregation(doc, variantFormat.EPACTS)
		require.NoError(t, err)
		b, _ := json.Marshal(data)
		assert.Contains(t, string(b), `"22:100_A/T"`)
	})

	t.Run("should reject documents without data", func(t *testing.T) {
		_, err := Aggregation([]byte(`{"error": "x"}`), variantFormat.EPACTS)
		assert.Error(t, err)
	})
}
