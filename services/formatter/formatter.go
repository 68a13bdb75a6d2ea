package formatter

import (
	"math"
	"net/http"
	"sort"

	c "ldserver/api/models/constants"
	"ldserver/api/models/constants/chromosome"
	"ldserver/api/models/dtos"
	"ldserver/api/services/engine"

	"github.com/labstack/echo"
	"github.com/vmihailenco/msgpack/v5"
)

const MIMEMsgpack = "application/msgpack"

// Round keeps precision decimal digits. precision <= 0 leaves v untouched.
func Round(v float64, precision int) dtos.Value {
	if precision <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return dtos.Value(v)
	}
	scale := math.Pow(10, float64(precision))
	return dtos.Value(math.Round(v*scale) / scale)
}

func Classic(pairs []engine.Pair, precision int) dtos.ClassicLD {
	out := dtos.ClassicLD{
		Chromosome1: make([]string, len(pairs)),
		Variant1:    make([]string, len(pairs)),
		Position1:   make([]int, len(pairs)),
		Chromosome2: make([]string, len(pairs)),
		Variant2:    make([]string, len(pairs)),
		Position2:   make([]int, len(pairs)),
		Correlation: make([]dtos.Value, len(pairs)),
	}
	for i, p := range pairs {
		out.Chromosome1[i] = p.Chrom1
		out.Variant1[i] = p.Variant1
		out.Position1[i] = p.Pos1
		out.Chromosome2[i] = p.Chrom2
		out.Variant2[i] = p.Variant2
		out.Position2[i] = p.Pos2
		out.Correlation[i] = Round(p.Value, precision)
	}
	return out
}

type site struct {
	id    string
	chrom string
	pos   int
}

type partner struct {
	index int
	value float64
}

// Compact lists each variant once, sorted by position, and stores each
// pair under its lower index. Partners of a row must be consecutive, so gaps
// between them are filled with NaN and listed in Fillers.
func Compact(pairs []engine.Pair, precision int) dtos.CompactLD {
	seen := map[string]site{}
	for _, p := range pairs {
		seen[p.Variant1] = site{p.Variant1, p.Chrom1, p.Pos1}
		seen[p.Variant2] = site{p.Variant2, p.Chrom2, p.Pos2}
	}
	sites := make([]site, 0, len(seen))
	for _, s := range seen {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool {
		a, b := sites[i], sites[j]
		if a.chrom != b.chrom {
			return chromosome.Less(a.chrom, b.chrom)
		}
		if a.pos != b.pos {
			return a.pos < b.pos
		}
		return a.id < b.id
	})

	index := make(map[string]int, len(sites))
	out := dtos.CompactLD{
		Variants:     make([]string, len(sites)),
		Chromosomes:  make([]string, len(sites)),
		Positions:    make([]int, len(sites)),
		Offsets:      make([]int, len(sites)),
		Correlations: make([][]dtos.Value, len(sites)),
	}
	for i, s := range sites {
		index[s.id] = i
		out.Variants[i] = s.id
		out.Chromosomes[i] = s.chrom
		out.Positions[i] = s.pos
		out.Offsets[i] = math.MinInt32
		out.Correlations[i] = []dtos.Value{}
	}

	rows := make([][]partner, len(sites))
	for _, p := range pairs {
		i1, i2 := index[p.Variant1], index[p.Variant2]
		if i1 > i2 {
			i1, i2 = i2, i1
		}
		rows[i1] = append(rows[i1], partner{i2, p.Value})
	}
	fillers := make([][]int, len(sites))
	gapped := false
	for i, row := range rows {
		fillers[i] = []int{}
		if len(row) == 0 {
			continue
		}
		sort.Slice(row, func(a, b int) bool { return row[a].index < row[b].index })
		out.Offsets[i] = row[0].index
		values := make([]dtos.Value, row[len(row)-1].index-row[0].index+1)
		present := make([]bool, len(values))
		for _, p := range row {
			k := p.index - row[0].index
			values[k] = Round(p.value, precision)
			present[k] = true
		}
		for k := range values {
			if !present[k] {
				values[k] = dtos.Value(math.NaN())
				fillers[i] = append(fillers[i], k)
				gapped = true
			}
		}
		out.Correlations[i] = values
	}
	if gapped {
		out.Fillers = fillers
	}
	return out
}

// Expand turns a compact payload back into pairs, skipping gap fillers.
// NaN values outside Fillers are genuine pairs and are kept.
func Expand(ld dtos.CompactLD) []engine.Pair {
	out := []engine.Pair{}
	for i, values := range ld.Correlations {
		skip := map[int]bool{}
		if i < len(ld.Fillers) {
			for _, k := range ld.Fillers[i] {
				skip[k] = true
			}
		}
		for k, v := range values {
			if skip[k] {
				continue
			}
			j := ld.Offsets[i] + k
			out = append(out, engine.Pair{
				Variant1: ld.Variants[i], Chrom1: ld.Chromosomes[i], Pos1: ld.Positions[i],
				Variant2: ld.Variants[j], Chrom2: ld.Chromosomes[j], Pos2: ld.Positions[j],
				Value: float64(v),
			})
		}
	}
	return out
}

func CompactVariant(index *engine.Anchor, pairs []engine.Pair, precision int) dtos.CompactVariantLD {
	out := dtos.CompactVariantLD{
		Variants:     make([]string, len(pairs)),
		Chromosomes:  make([]string, len(pairs)),
		Positions:    make([]int, len(pairs)),
		Correlations: make([]dtos.Value, len(pairs)),
	}
	if index != nil {
		out.IndexVariant = index.Variant
		out.IndexChromosome = index.Chrom
		out.IndexPosition = index.Pos
	}
	for i, p := range pairs {
		out.Variants[i] = p.Variant2
		out.Chromosomes[i] = p.Chrom2
		out.Positions[i] = p.Pos2
		out.Correlations[i] = Round(p.Value, precision)
	}
	return out
}

// Options are the presentation parameters shared by every LD endpoint.
type Options struct {
	Shape     c.ResultShape
	Precision int
	Msgpack   bool
}

// Render writes env as JSON or MessagePack.
func Render(ctx echo.Context, status int, env dtos.Envelope, useMsgpack bool) error {
	if !useMsgpack {
		return ctx.JSON(status, env)
	}
	b, err := msgpack.Marshal(env)
	if err != nil {
		return err
	}
	return ctx.Blob(status, MIMEMsgpack, b)
}

func Ok(ctx echo.Context, data interface{}, useMsgpack bool) error {
	return Render(ctx, http.StatusOK, dtos.Ok(data), useMsgpack)
}
