package memory

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ldserver/api/models/constants/correlation"
	filterOp "ldserver/api/models/constants/filter-op"
	groupType "ldserver/api/models/constants/group-type"
	"ldserver/api/services/engine"
	"ldserver/api/services/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFixture = `
panels:
  - files: ["1000G/chr22.sav"]
    samples: 2504
    sigma_squared: 0.25
    variants:
      - {id: "22:51241101_A/T", alt_freq: 0.10, pvalue: 0.01, score: 2.5}
      - {id: "22:51241102_G/C", alt_freq: 0.30, pvalue: 0.20, score: 1.1}
      - {id: "22:51241250_C/T", alt_freq: 0.02, pvalue: 0.50, score: -0.4}
      - {id: "22:51241386_A/G", alt_freq: 0.90, pvalue: 0.04, score: 1.9}
      - {id: "22:51242001_T/C", alt_freq: 0.40, pvalue: 0.90, score: 0.1}
      - {id: "22:51243010_G/A", alt_freq: 0.01, pvalue: 0.33, score: 0.7}
    pairs:
      - {a: "22:51241101_A/T", b: "22:51241102_G/C", r: 0.5, cov: 0.05}
      - {a: "22:51241101_A/T", b: "22:51241250_C/T", r: -0.2}
      - {a: "22:51241102_G/C", b: "22:51241250_C/T", r: 0.9, cov: 0.01}
      - {a: "22:51241101_A/T", b: "22:51241386_A/G", r: 0.3}
      - {a: "22:51241250_C/T", b: "22:51241386_A/G", r: 0.1}
      - {a: "22:51241101_A/T", b: "22:51242001_T/C", r: 0.7}
      - {a: "22:51241386_A/G", b: "22:51243010_G/A", r: 0.4}
      - {a: "22:51242001_T/C", b: "22:51243010_G/A", r: -0.6}
`

func newTestEngine(t *testing.T) *Engine {
	fixture, err := ParseFixture(strings.NewReader(testFixture))
	require.Nil(t, err)
	e, err := New(100, fixture)
	require.Nil(t, err)
	return e
}

func regionRequest() engine.RegionRequest {
	return engine.RegionRequest{
		Panel:       engine.Panel{DatasetId: 1, Files: []string{"1000G/chr22.sav"}},
		Chrom:       "22",
		Start:       51241000,
		Stop:        51244000,
		Correlation: correlation.R,
	}
}

func drain(t *testing.T, e *Engine, limit int, run func(*engine.ResultSink) error) [][]engine.Pair {
	pages := [][]engine.Pair{}
	cursor := pagination.Start()
	for i := 0; i < 100; i++ {
		sink := engine.NewResultSink(limit, cursor)
		require.Nil(t, run(sink))
		pages = append(pages, sink.Pairs)
		if !sink.Cursor.HasNext() {
			return pages
		}
		// round trip the cursor like a client would
		parsed, err := pagination.Parse(sink.Cursor.String())
		require.Nil(t, err)
		cursor = parsed
	}
	t.Fatal("pagination did not terminate")
	return nil
}

func flatten(pages [][]engine.Pair) []engine.Pair {
	out := []engine.Pair{}
	for _, p := range pages {
		out = append(out, p...)
	}
	return out
}

func TestRegionPagination(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := regionRequest()

	all := drain(t, e, 0, func(s *engine.ResultSink) error { return e.ComputeRegionLD(ctx, req, s) })
	require.Len(t, all, 1)
	expected := all[0]
	assert.Len(t, expected, 8)

	for k := 1; k <= len(expected)+1; k++ {
		pages := drain(t, e, k, func(s *engine.ResultSink) error { return e.ComputeRegionLD(ctx, req, s) })

		for _, page := range pages {
			assert.LessOrEqual(t, len(page), k)
		}
		assert.Equal(t, expected, flatten(pages), "limit %d", k)
	}
}

func TestRegionValues(t *testing.T) {
	e := newTestEngine(t)
	req := regionRequest()
	req.Correlation = correlation.RSquare
	req.Stop = 51241385

	sink := engine.NewResultSink(0, pagination.Start())
	require.Nil(t, e.ComputeRegionLD(context.Background(), req, sink))

	// three variants in the window, all pairs known, no diagonal
	assert.Len(t, sink.Pairs, 3)
	for _, p := range sink.Pairs {
		assert.Less(t, p.Pos1, p.Pos2)
		if p.Variant1 == "22:51241102_G/C" && p.Variant2 == "22:51241250_C/T" {
			assert.InDelta(t, 0.81, p.Value, 1e-9)
		}
	}
}

func TestMixedCursorDoesNotPanic(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := regionRequest()

	first := engine.NewResultSink(1, pagination.Start())
	require.Nil(t, e.ComputeRegionLD(ctx, req, first))
	require.True(t, first.Cursor.HasNext())

	forged := first.Cursor
	forged.I = -1
	assert.NotPanics(t, func() {
		assert.Nil(t, e.ComputeRegionLD(ctx, req, engine.NewResultSink(1, forged)))
	})

	variant := engine.VariantRequest{RegionRequest: req, Variant: "22:51241101_A/T"}
	forged.I, forged.J = 0, -1
	assert.NotPanics(t, func() {
		assert.Nil(t, e.ComputeVariantLD(ctx, variant, engine.NewResultSink(1, forged)))
	})
}

func TestRegionUnknownChromosome(t *testing.T) {
	e := newTestEngine(t)
	req := regionRequest()
	req.Chrom = "21"

	err := e.ComputeRegionLD(context.Background(), req, engine.NewResultSink(10, pagination.Start()))
	assert.True(t, errors.Is(err, engine.ErrChromosomeNotFound))
}

func TestVariantLD(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	req := engine.VariantRequest{RegionRequest: regionRequest(), Variant: "22:51241101_A/T"}
	req.Correlation = correlation.RSquare

	t.Run("should include the anchor against itself", func(t *testing.T) {
		sink := engine.NewResultSink(0, pagination.Start())
		require.Nil(t, e.ComputeVariantLD(ctx, req, sink))

		assert.Equal(t, "22:51241101_A/T", sink.Index.Variant)
		require.NotEmpty(t, sink.Pairs)
		assert.Equal(t, "22:51241101_A/T", sink.Pairs[0].Variant2)
		assert.Equal(t, 1.0, sink.Pairs[0].Value)
		assert.Len(t, sink.Pairs, 5)
	})

	t.Run("should paginate without loss", func(t *testing.T) {
		run := func(s *engine.ResultSink) error { return e.ComputeVariantLD(ctx, req, s) }
		expected := flatten(drain(t, e, 0, run))
		for k := 1; k <= 6; k++ {
			assert.Equal(t, expected, flatten(drain(t, e, k, run)), "limit %d", k)
		}
	})

	t.Run("should return nothing for a window on another chromosome", func(t *testing.T) {
		fixture, err := ParseFixture(strings.NewReader(testFixture))
		require.Nil(t, err)
		fixture.Panels[0].Variants = append(fixture.Panels[0].Variants, VariantFixture{Id: "21:100_A/T"})
		multi, err := New(100, fixture)
		require.Nil(t, err)

		other := req
		other.Chrom = "21"
		sink := engine.NewResultSink(10, pagination.Start())
		require.Nil(t, multi.ComputeVariantLD(ctx, other, sink))
		assert.Empty(t, sink.Pairs)
		assert.False(t, sink.Cursor.HasNext())
	})

	t.Run("should report an unknown anchor", func(t *testing.T) {
		missing := req
		missing.Variant = "22:1_A/T"
		err := e.ComputeVariantLD(ctx, missing, engine.NewResultSink(10, pagination.Start()))
		assert.True(t, errors.Is(err, engine.ErrNoVariants))
	})
}

func TestRunScoreCovariance(t *testing.T) {
	e := newTestEngine(t)
	segments := engine.NewSegments("1", 100)
	cfg := engine.ScoreCovarianceConfig{
		Chrom: "22", Start: 51241000, Stop: 51244000,
		Genotype:  &engine.Panel{DatasetId: 1, Files: []string{"1000G/chr22.sav"}},
		Phenotype: &engine.PhenotypeInput{DatasetId: 2, Column: "rand_qt"},
		Segments:  segments,
		Masks: []engine.Mask{{
			Id: 1, Name: "AF < 0.01", GroupType: groupType.Gene,
			Groups: []engine.VariantGroup{
				{Name: "G1", Variants: []string{"22:51241102_G/C", "22:51241101_A/T", "22:51241250_C/T"}},
				{Name: "R1", Chrom: "22", Start: 51241000, Stop: 51243100,
					Filters: []engine.Filter{{Field: "maf", Op: filterOp.Lte, Value: 0.05}}},
				{Name: "EMPTY", Variants: []string{"22:1_A/T"}},
			},
		}},
	}

	out, err := e.RunScoreCovariance(context.Background(), cfg)
	require.Nil(t, err)

	var doc struct {
		Data struct {
			Variants []struct {
				Variant string  `json:"variant"`
				AltFreq float64 `json:"altFreq"`
			} `json:"variants"`
			Groups []struct {
				Group      string    `json:"group"`
				Variants   []string  `json:"variants"`
				Covariance []float64 `json:"covariance"`
			} `json:"groups"`
			NSamples        int    `json:"nSamples"`
			GenotypeDataset int    `json:"genotypeDataset"`
			Phenotype       string `json:"phenotype"`
		} `json:"data"`
	}
	require.Nil(t, json.Unmarshal(out, &doc))

	top := map[string]bool{}
	for _, v := range doc.Data.Variants {
		top[v.Variant] = true
	}

	require.Len(t, doc.Data.Groups, 2)
	for _, g := range doc.Data.Groups {
		n := len(g.Variants)
		assert.Len(t, g.Covariance, n*(n+1)/2, g.Group)
		for _, v := range g.Variants {
			assert.True(t, top[v], v)
		}
	}
	assert.Equal(t, []string{"22:51241101_A/T", "22:51241102_G/C", "22:51241250_C/T"}, doc.Data.Groups[0].Variants)
	assert.Equal(t, []float64{1, 0.05, 0, 1, 0.01, 1}, doc.Data.Groups[0].Covariance)
	assert.Equal(t, []string{"22:51241250_C/T", "22:51243010_G/A"}, doc.Data.Groups[1].Variants)

	assert.Equal(t, 2504, doc.Data.NSamples)
	assert.Equal(t, 1, doc.Data.GenotypeDataset)
	assert.Equal(t, "rand_qt", doc.Data.Phenotype)
	assert.Greater(t, segments.Decoded(), 0)
}

func TestRunScoreCovarianceNoGroups(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.RunScoreCovariance(context.Background(), engine.ScoreCovarianceConfig{
		Chrom: "22", Start: 1, Stop: 2,
		ScoreFiles: []string{"1000G/chr22.sav"},
		Masks:      []engine.Mask{{Id: 1, Groups: []engine.VariantGroup{{Name: "X", Chrom: "22", Start: 1, Stop: 2}}}},
	})
	assert.True(t, errors.Is(err, engine.ErrNoVariants))
}
