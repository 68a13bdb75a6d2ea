package memory

import (
	"fmt"
	"sort"

	c "ldserver/api/models/constants"
	"ldserver/api/models/constants/chromosome"
	"ldserver/api/models/constants/correlation"
	"ldserver/api/models/variant"
)

type record struct {
	Id       string
	Chrom    string
	Pos      int
	AltFreq  float64
	Pvalue   float64
	Score    float64
	Variance float64
}

type panel struct {
	files        map[string]bool
	samples      int
	sigmaSquared float64

	variants []record
	byId     map[string]int
	// chrom -> indices into variants, position ordered
	byChrom map[string][]int
	r       map[[2]string]float64
	cov     map[[2]string]float64
}

func pairKey(a string, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func newPanel(f PanelFixture) (*panel, error) {
	p := &panel{
		files:        map[string]bool{},
		samples:      f.Samples,
		sigmaSquared: f.SigmaSquared,
		byId:         map[string]int{},
		byChrom:      map[string][]int{},
		r:            map[[2]string]float64{},
		cov:          map[[2]string]float64{},
	}
	for _, file := range f.Files {
		p.files[file] = true
	}

	for _, v := range f.Variants {
		parsed, err := variant.Parse(v.Id)
		if err != nil {
			return nil, fmt.Errorf("fixture variant: %w", err)
		}
		variance := v.Variance
		if variance == 0 {
			variance = 1
		}
		p.variants = append(p.variants, record{
			Id: parsed.Epacts(), Chrom: parsed.Chrom, Pos: parsed.Pos,
			AltFreq: v.AltFreq, Pvalue: v.Pvalue, Score: v.Score, Variance: variance,
		})
	}
	sort.SliceStable(p.variants, func(i, j int) bool {
		a, b := p.variants[i], p.variants[j]
		if a.Chrom != b.Chrom {
			return chromosome.Less(a.Chrom, b.Chrom)
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		return a.Id < b.Id
	})
	for i, v := range p.variants {
		p.byId[v.Id] = i
		p.byChrom[v.Chrom] = append(p.byChrom[v.Chrom], i)
	}

	for _, pair := range f.Pairs {
		a, errA := variant.Normalize(pair.A, "")
		b, errB := variant.Normalize(pair.B, "")
		if errA != nil || errB != nil {
			return nil, fmt.Errorf("fixture pair %s/%s: invalid variant", pair.A, pair.B)
		}
		if pair.R != nil {
			p.r[pairKey(a, b)] = *pair.R
		}
		if pair.Cov != nil {
			p.cov[pairKey(a, b)] = *pair.Cov
		}
	}
	return p, nil
}

func (p *panel) serves(files []string) bool {
	for _, f := range files {
		if p.files[f] {
			return true
		}
	}
	return false
}

func (p *panel) chromosomes() []string {
	chroms := make([]string, 0, len(p.byChrom))
	for chrom := range p.byChrom {
		chroms = append(chroms, chrom)
	}
	sort.Slice(chroms, func(i, j int) bool { return chromosome.Less(chroms[i], chroms[j]) })
	return chroms
}

// decode returns the variant indices falling in one segment.
func (p *panel) decode(chrom string, segment int, size int) []int {
	indices := p.byChrom[chrom]
	lo := sort.Search(len(indices), func(k int) bool { return p.variants[indices[k]].Pos >= segment*size })
	hi := sort.Search(len(indices), func(k int) bool { return p.variants[indices[k]].Pos >= (segment+1)*size })
	out := make([]int, hi-lo)
	copy(out, indices[lo:hi])
	return out
}

// segmentsIn lists the non-empty segments overlapping [start, stop].
func (p *panel) segmentsIn(chrom string, start int, stop int, size int) []int {
	segments := make([]int, 0)
	last := -1
	for _, idx := range p.byChrom[chrom] {
		pos := p.variants[idx].Pos
		if pos < start || pos > stop {
			continue
		}
		if s := pos / size; s != last {
			segments = append(segments, s)
			last = s
		}
	}
	return segments
}

func (p *panel) value(kind c.CorrelationKind, a int, b int) (float64, bool) {
	if a == b {
		if kind == correlation.Covariance {
			return p.variants[a].Variance, true
		}
		return 1, true
	}

	key := pairKey(p.variants[a].Id, p.variants[b].Id)
	switch kind {
	case correlation.R:
		r, ok := p.r[key]
		return r, ok
	case correlation.RSquare:
		r, ok := p.r[key]
		return r * r, ok
	case correlation.Covariance:
		v, ok := p.cov[key]
		return v, ok
	}
	return 0, false
}

func (p *panel) maf(idx int) float64 {
	af := p.variants[idx].AltFreq
	if af > 0.5 {
		return 1 - af
	}
	return af
}
